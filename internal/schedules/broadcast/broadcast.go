package broadcast

import (
	"context"
	"time"

	"medibook/pkg/kafka"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

const (
	EventTypeSlotUpdated = "schedule.slot.updated"

	schemaVersion = "1"
	source        = "appointments-service"
)

// SlotSnapshot is the post-commit state of one time slot as seen by
// schedule-view subscribers.
type SlotSnapshot struct {
	SlotID      string `json:"slot_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxBookings int    `json:"max_bookings"`
	BookedCount int    `json:"booked_count"`
	IsBooked    bool   `json:"is_booked"`
}

// SlotUpdateEvent is published after every committed capacity change.
type SlotUpdateEvent struct {
	DoctorID  string       `json:"doctor_id"`
	Date      string       `json:"date"`
	Slot      SlotSnapshot `json:"slot"`
	EmittedAt time.Time    `json:"emitted_at"`
}

// SlotBroadcaster notifies external views of slot occupancy changes. A
// failed broadcast never fails the booking it describes.
type SlotBroadcaster interface {
	PublishSlotUpdate(ctx context.Context, event SlotUpdateEvent) error
}

// Snapshot copies the broadcastable fields of a slot.
func Snapshot(slot *model.TimeSlot) SlotSnapshot {
	return SlotSnapshot{
		SlotID:      slot.SlotID,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		MaxBookings: slot.MaxBookings,
		BookedCount: slot.BookedCount,
		IsBooked:    slot.IsBooked,
	}
}

type kafkaBroadcaster struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaBroadcaster(producer *kafka.Producer, log *logger.Logger) SlotBroadcaster {
	return &kafkaBroadcaster{producer: producer, log: log}
}

// PublishSlotUpdate keys messages by doctor and date so every update for
// one doctor/day lands on the same partition, preserving order.
func (b *kafkaBroadcaster) PublishSlotUpdate(ctx context.Context, event SlotUpdateEvent) error {
	msg := kafka.NewMessage().
		WithKey(event.DoctorID + ":" + event.Date).
		WithValue(event).
		WithEventType(EventTypeSlotUpdated).
		WithSource(source).
		WithHeader(kafka.HeaderSchemaVersion, schemaVersion).
		Build()

	if err := b.producer.Publish(ctx, msg); err != nil {
		b.log.Error("failed to publish slot update",
			"doctor_id", event.DoctorID,
			"date", event.Date,
			"slot_id", event.Slot.SlotID,
			"error", err)
		return err
	}
	return nil
}

type noopBroadcaster struct{}

// NewNoopBroadcaster returns a broadcaster that drops all events. Used
// when broadcasting is disabled by configuration.
func NewNoopBroadcaster() SlotBroadcaster {
	return noopBroadcaster{}
}

func (noopBroadcaster) PublishSlotUpdate(context.Context, SlotUpdateEvent) error {
	return nil
}
