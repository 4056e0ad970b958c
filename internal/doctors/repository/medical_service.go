package repository

import (
	"context"
	"errors"
	"fmt"

	doctorerrors "medibook/internal/doctors/errors"
	"medibook/pkg/config"
	"medibook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MedicalServiceCollectionName = "MedicalServices"
)

// MedicalServiceRepository serves the consultation fee lookups done at
// booking time. Every query is scoped to active services.
type MedicalServiceRepository interface {
	FindActiveForDoctor(ctx context.Context, serviceID, doctorID string) (*model.MedicalService, error)
	FindFirstActiveByDoctorAndSpecialty(ctx context.Context, doctorID, specialtyID string) (*model.MedicalService, error)
	FindCheapestActiveBySpecialtyAndType(ctx context.Context, specialtyID, serviceType string) (*model.MedicalService, error)
	FindCheapestActiveBySpecialty(ctx context.Context, specialtyID string) (*model.MedicalService, error)
}

type mongoMedicalServiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMedicalServiceRepository(cfg *config.Config) MedicalServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMedicalServiceRepository{
		cfg:        cfg,
		collection: db.Collection(MedicalServiceCollectionName),
	}
}

func (r *mongoMedicalServiceRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.MedicalService, error) {
	if _, ok := ctx.(mongo.SessionContext); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()
	}

	var service model.MedicalService
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&service)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, doctorerrors.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find medical service: %w", err)
	}

	return &service, nil
}

// FindActiveForDoctor returns the service only when it is active and
// belongs to the doctor. Specialty-wide services carry no doctor_id and
// never match here.
func (r *mongoMedicalServiceRepository) FindActiveForDoctor(ctx context.Context, serviceID, doctorID string) (*model.MedicalService, error) {
	objectID, err := primitive.ObjectIDFromHex(serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", doctorerrors.ErrInvalidID, serviceID)
	}

	return r.findOne(ctx, bson.M{
		"_id":       objectID,
		"doctor_id": doctorID,
		"is_active": true,
	})
}

func (r *mongoMedicalServiceRepository) FindFirstActiveByDoctorAndSpecialty(ctx context.Context, doctorID, specialtyID string) (*model.MedicalService, error) {
	filter := bson.M{
		"doctor_id":    doctorID,
		"specialty_id": specialtyID,
		"is_active":    true,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoMedicalServiceRepository) FindCheapestActiveBySpecialtyAndType(ctx context.Context, specialtyID, serviceType string) (*model.MedicalService, error) {
	filter := bson.M{
		"specialty_id": specialtyID,
		"type":         serviceType,
		"is_active":    true,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "price", Value: 1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoMedicalServiceRepository) FindCheapestActiveBySpecialty(ctx context.Context, specialtyID string) (*model.MedicalService, error) {
	filter := bson.M{
		"specialty_id": specialtyID,
		"is_active":    true,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "price", Value: 1}})
	return r.findOne(ctx, filter, opts)
}
