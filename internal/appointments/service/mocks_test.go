package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	appointmenterrors "medibook/internal/appointments/errors"
	billingerrors "medibook/internal/billing/errors"
	doctorerrors "medibook/internal/doctors/errors"
	"medibook/internal/schedules/broadcast"
	scheduleerrors "medibook/internal/schedules/errors"
	scheduleservice "medibook/internal/schedules/service"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

type mockAppointmentRepo struct {
	byCode map[string]*model.Appointment
	seq    int
	inTxn  bool
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{byCode: make(map[string]*model.Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	m.seq++
	a.ID = fmt.Sprintf("appt-%d", m.seq)
	m.byCode[a.BookingCode] = a
	return nil
}

func (m *mockAppointmentRepo) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	for _, a := range m.byCode {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, appointmenterrors.ErrNotFound
}

func (m *mockAppointmentRepo) FindByBookingCodeAndPatient(_ context.Context, code, patientID string) (*model.Appointment, error) {
	a, ok := m.byCode[code]
	if !ok || a.PatientID != patientID {
		return nil, appointmenterrors.ErrNotFound
	}
	return a, nil
}

func (m *mockAppointmentRepo) FindByPatient(_ context.Context, patientID string, _ int64) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.byCode {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) MaxQueueNumber(_ context.Context, doctorID, date string) (int, error) {
	active := make(map[string]bool)
	for _, s := range model.ActiveStatuses() {
		active[s] = true
	}
	max := 0
	for _, a := range m.byCode {
		if a.DoctorID == doctorID && a.Date == date && active[a.Status] && a.QueueNumber > max {
			max = a.QueueNumber
		}
	}
	return max, nil
}

func (m *mockAppointmentRepo) Replace(_ context.Context, a *model.Appointment) error {
	if _, ok := m.byCode[a.BookingCode]; !ok {
		return appointmenterrors.ErrNotFound
	}
	m.byCode[a.BookingCode] = a
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id, status string) error {
	for _, a := range m.byCode {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return appointmenterrors.ErrNotFound
}

func (m *mockAppointmentRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	m.inTxn = true
	defer func() { m.inTxn = false }()
	return fn(nil, &mongotx.UnitOfWork{})
}

type mockScheduleRepo struct {
	schedules []*model.Schedule
}

func (m *mockScheduleRepo) Create(_ context.Context, s *model.Schedule) error {
	m.schedules = append(m.schedules, s)
	return nil
}

func (m *mockScheduleRepo) FindByID(_ context.Context, id string) (*model.Schedule, error) {
	for _, s := range m.schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, scheduleerrors.ErrNotFound
}

func (m *mockScheduleRepo) FindByDoctorAndDate(_ context.Context, doctorID, date string) (*model.Schedule, error) {
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Date == date {
			return s, nil
		}
	}
	return nil, scheduleerrors.ErrNotFound
}

func (m *mockScheduleRepo) FindByDoctorFromDate(_ context.Context, doctorID, fromDate string, limit int) ([]*model.Schedule, error) {
	var out []*model.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Date >= fromDate {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockScheduleRepo) ReplaceSlot(_ context.Context, scheduleID string, slot *model.TimeSlot) error {
	for _, s := range m.schedules {
		if s.ID != scheduleID {
			continue
		}
		if _, ok := s.Slot(slot.SlotID); !ok {
			return scheduleerrors.ErrSlotNotFound
		}
		return nil
	}
	return scheduleerrors.ErrNotFound
}

func (m *mockScheduleRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil, &mongotx.UnitOfWork{})
}

type mockBillRepo struct {
	byCode   map[string]*model.Bill
	payments []*model.BillPayment
	seq      int
}

func newMockBillRepo() *mockBillRepo {
	return &mockBillRepo{byCode: make(map[string]*model.Bill)}
}

func (m *mockBillRepo) Create(_ context.Context, b *model.Bill) error {
	m.seq++
	b.ID = fmt.Sprintf("bill-%d", m.seq)
	m.byCode[b.BookingCode] = b
	return nil
}

func (m *mockBillRepo) FindByBookingCode(_ context.Context, code string) (*model.Bill, error) {
	b, ok := m.byCode[code]
	if !ok {
		return nil, billingerrors.ErrNotFound
	}
	return b, nil
}

func (m *mockBillRepo) Replace(_ context.Context, b *model.Bill) error {
	if _, ok := m.byCode[b.BookingCode]; !ok {
		return billingerrors.ErrNotFound
	}
	m.byCode[b.BookingCode] = b
	return nil
}

func (m *mockBillRepo) InsertPayment(_ context.Context, p *model.BillPayment) error {
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockBillRepo) FindPaymentsByBookingCode(_ context.Context, code string) ([]*model.BillPayment, error) {
	var out []*model.BillPayment
	for _, p := range m.payments {
		if p.BookingCode == code {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockBillRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil, &mongotx.UnitOfWork{})
}

type mockDoctorRepo struct {
	doctor *model.Doctor
	onFind func()
}

func (m *mockDoctorRepo) FindByID(_ context.Context, id string) (*model.Doctor, error) {
	if m.onFind != nil {
		m.onFind()
	}
	if m.doctor != nil && m.doctor.ID == id {
		return m.doctor, nil
	}
	return nil, doctorerrors.ErrDoctorNotFound
}

type mockServiceRepo struct {
	activeForDoctor func(serviceID, doctorID string) (*model.MedicalService, error)
	firstByDoctor   func(doctorID, specialtyID string) (*model.MedicalService, error)
	cheapestByType  func(specialtyID, serviceType string) (*model.MedicalService, error)
	cheapest        func(specialtyID string) (*model.MedicalService, error)
}

func (m *mockServiceRepo) FindActiveForDoctor(_ context.Context, serviceID, doctorID string) (*model.MedicalService, error) {
	if m.activeForDoctor == nil {
		return nil, doctorerrors.ErrServiceNotFound
	}
	return m.activeForDoctor(serviceID, doctorID)
}

func (m *mockServiceRepo) FindFirstActiveByDoctorAndSpecialty(_ context.Context, doctorID, specialtyID string) (*model.MedicalService, error) {
	if m.firstByDoctor == nil {
		return nil, doctorerrors.ErrServiceNotFound
	}
	return m.firstByDoctor(doctorID, specialtyID)
}

func (m *mockServiceRepo) FindCheapestActiveBySpecialtyAndType(_ context.Context, specialtyID, serviceType string) (*model.MedicalService, error) {
	if m.cheapestByType == nil {
		return nil, doctorerrors.ErrServiceNotFound
	}
	return m.cheapestByType(specialtyID, serviceType)
}

func (m *mockServiceRepo) FindCheapestActiveBySpecialty(_ context.Context, specialtyID string) (*model.MedicalService, error) {
	if m.cheapest == nil {
		return nil, doctorerrors.ErrServiceNotFound
	}
	return m.cheapest(specialtyID)
}

type mockBroadcaster struct {
	events []broadcast.SlotUpdateEvent
}

func (m *mockBroadcaster) PublishSlotUpdate(_ context.Context, e broadcast.SlotUpdateEvent) error {
	m.events = append(m.events, e)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		RescheduleLimit:          2,
		RescheduleLeadTime:       4 * time.Hour,
		PreferredHourWindow:      1,
		ScheduleSearchWindowDays: 30,
		Log:                      logger.New(logger.Config{Output: io.Discard}),
	}
}

type fixture struct {
	svc          *AppointmentService
	appointments *mockAppointmentRepo
	schedules    *mockScheduleRepo
	bills        *mockBillRepo
	doctors      *mockDoctorRepo
	services     *mockServiceRepo
	broadcaster  *mockBroadcaster
}

func newFixture(doctor *model.Doctor, schedules ...*model.Schedule) *fixture {
	cfg := testConfig()
	appointmentRepo := newMockAppointmentRepo()
	scheduleRepo := &mockScheduleRepo{schedules: schedules}
	billRepo := newMockBillRepo()
	doctorRepo := &mockDoctorRepo{doctor: doctor}
	serviceRepo := &mockServiceRepo{}
	b := &mockBroadcaster{}

	svc := NewAppointmentService(
		cfg,
		appointmentRepo,
		billRepo,
		doctorRepo,
		serviceRepo,
		scheduleservice.NewSlotStore(scheduleRepo, cfg.Log),
		scheduleservice.NewSlotFinder(scheduleRepo, cfg),
		b,
	)

	return &fixture{
		svc:          svc,
		appointments: appointmentRepo,
		schedules:    scheduleRepo,
		bills:        billRepo,
		doctors:      doctorRepo,
		services:     serviceRepo,
		broadcaster:  b,
	}
}

func testDoctor() *model.Doctor {
	return &model.Doctor{
		ID:              "doc-1",
		Name:            "Dr. Binh",
		HospitalName:    "Central Hospital",
		SpecialtyID:     "spec-1",
		SpecialtyName:   "Cardiology",
		ConsultationFee: 150000,
		IsActive:        true,
	}
}

func testSchedule(id, date string, slots ...model.TimeSlot) *model.Schedule {
	return &model.Schedule{
		ID:        id,
		DoctorID:  "doc-1",
		Date:      date,
		TimeSlots: slots,
	}
}

func slot(id, start, end string, capacity int) model.TimeSlot {
	return model.TimeSlot{
		SlotID:      id,
		StartTime:   start,
		EndTime:     end,
		MaxBookings: capacity,
	}
}
