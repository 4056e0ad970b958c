package service

import (
	"context"
	"errors"

	doctorerrors "medibook/internal/doctors/errors"
	"medibook/pkg/model"
)

// resolveServiceFee resolves the additional-service fee charged on top
// of the doctor's consultation fee. The fallback chain, in order:
//
//  1. the caller-named service, when it is the doctor's and active
//  2. the doctor's oldest active service in their specialty
//  3. the cheapest active examination service in the specialty
//  4. the cheapest active service of any type in the specialty
//
// When nothing resolves the booking carries no additional fee. A
// caller-named service that fails step 1 falls through silently; it
// never aborts the booking.
func (s *AppointmentService) resolveServiceFee(ctx context.Context, doctor *model.Doctor, serviceID string) (int64, string, error) {
	if serviceID != "" {
		svc, err := s.services.FindActiveForDoctor(ctx, serviceID, doctor.ID)
		switch {
		case err == nil:
			return svc.Price, svc.ID, nil
		case errors.Is(err, doctorerrors.ErrServiceNotFound), errors.Is(err, doctorerrors.ErrInvalidID):
			s.log.Debug("requested service not usable, falling back",
				"service_id", serviceID,
				"doctor_id", doctor.ID)
		default:
			return 0, "", err
		}
	}

	svc, err := s.services.FindFirstActiveByDoctorAndSpecialty(ctx, doctor.ID, doctor.SpecialtyID)
	if err == nil {
		return svc.Price, svc.ID, nil
	}
	if !errors.Is(err, doctorerrors.ErrServiceNotFound) {
		return 0, "", err
	}

	svc, err = s.services.FindCheapestActiveBySpecialtyAndType(ctx, doctor.SpecialtyID, model.ServiceTypeExamination)
	if err == nil {
		return svc.Price, svc.ID, nil
	}
	if !errors.Is(err, doctorerrors.ErrServiceNotFound) {
		return 0, "", err
	}

	svc, err = s.services.FindCheapestActiveBySpecialty(ctx, doctor.SpecialtyID)
	if err == nil {
		return svc.Price, svc.ID, nil
	}
	if !errors.Is(err, doctorerrors.ErrServiceNotFound) {
		return 0, "", err
	}

	return 0, "", nil
}
