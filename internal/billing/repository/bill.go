package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingerrors "medibook/internal/billing/errors"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	"medibook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName        = "Bills"
	PaymentCollectionName = "BillPayments"
)

type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	FindByBookingCode(ctx context.Context, bookingCode string) (*model.Bill, error)
	Replace(ctx context.Context, bill *model.Bill) error
	InsertPayment(ctx context.Context, payment *model.BillPayment) error
	FindPaymentsByBookingCode(ctx context.Context, bookingCode string) ([]*model.BillPayment, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBillRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	payments   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBillRepository(cfg *config.Config) BillRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBillRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		payments:   db.Collection(PaymentCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.Log),
	}
}

func (r *mongoBillRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBillRepository) Create(ctx context.Context, bill *model.Bill) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bill.CreatedAt = now
	bill.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, bill)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bill.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBillRepository) FindByBookingCode(ctx context.Context, bookingCode string) (*model.Bill, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var bill model.Bill
	err := r.collection.FindOne(ctx, bson.M{"booking_code": bookingCode}).Decode(&bill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}

	return &bill, nil
}

// Replace persists the full bill document, derived fields included.
// Callers must Recompute before replacing.
func (r *mongoBillRepository) Replace(ctx context.Context, bill *model.Bill) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bill.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, bill.ID)
	}

	bill.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	replacement := *bill
	replacement.ID = ""

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, &replacement)
	if err != nil {
		return fmt.Errorf("failed to replace bill: %w", err)
	}
	if result.MatchedCount == 0 {
		return billingerrors.ErrNotFound
	}

	return nil
}

func (r *mongoBillRepository) InsertPayment(ctx context.Context, payment *model.BillPayment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	payment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.payments.InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("failed to insert bill payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBillRepository) FindPaymentsByBookingCode(ctx context.Context, bookingCode string) ([]*model.BillPayment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.payments.Find(ctx, bson.M{"booking_code": bookingCode})
	if err != nil {
		return nil, fmt.Errorf("failed to find bill payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*model.BillPayment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode bill payments: %w", err)
	}

	return payments, nil
}

func (r *mongoBillRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
