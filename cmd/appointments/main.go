package main

import (
	"context"

	appointmenthandler "medibook/internal/appointments/handler"
	appointmentrepo "medibook/internal/appointments/repository"
	appointmentservice "medibook/internal/appointments/service"
	appointmentvalidator "medibook/internal/appointments/validator"
	billinghandler "medibook/internal/billing/handler"
	billingrepo "medibook/internal/billing/repository"
	billingservice "medibook/internal/billing/service"
	billingvalidator "medibook/internal/billing/validator"
	doctorrepo "medibook/internal/doctors/repository"
	"medibook/internal/health"
	"medibook/internal/schedules/broadcast"
	schedulehandler "medibook/internal/schedules/handler"
	schedulerepo "medibook/internal/schedules/repository"
	scheduleservice "medibook/internal/schedules/service"
	"medibook/pkg/app"
	"medibook/pkg/config"
	"medibook/pkg/kafka"
	kafkaconfig "medibook/pkg/kafka/config"
	kafkamiddleware "medibook/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const serviceName = "appointments"

func main() {
	// Missing .env is fine; the environment may be set by the platform.
	_ = godotenv.Load()

	cfg := config.Load(serviceName)
	cfg.SetMongo()

	scheduleRepo := schedulerepo.NewMongoScheduleRepository(cfg)
	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	billRepo := billingrepo.NewMongoBillRepository(cfg)
	doctorRepo := doctorrepo.NewMongoDoctorRepository(cfg)
	medicalServiceRepo := doctorrepo.NewMongoMedicalServiceRepository(cfg)

	broadcaster := broadcast.NewNoopBroadcaster()
	var producer *kafka.Producer
	if cfg.BroadcastDisabled {
		cfg.Log.Warn("slot-update broadcasting is disabled")
	} else {
		kafkaCfg, err := kafkaconfig.Load()
		if err != nil {
			cfg.Log.Fatal("Failed to load Kafka configuration", "error", err)
		}
		producer, err = kafka.NewProducer(kafkaCfg, cfg.SlotUpdateTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafkamiddleware.ProducerLogging(cfg.Log))
		broadcaster = broadcast.NewKafkaBroadcaster(producer, cfg.Log)
	}

	slotStore := scheduleservice.NewSlotStore(scheduleRepo, cfg.Log)
	slotFinder := scheduleservice.NewSlotFinder(scheduleRepo, cfg)
	availability := scheduleservice.NewAvailabilityService(scheduleRepo, cfg.Log)

	appointmentSvc := appointmentservice.NewAppointmentService(
		cfg, appointmentRepo, billRepo, doctorRepo, medicalServiceRepo,
		slotStore, slotFinder, broadcaster)
	billingSvc := billingservice.NewBillingService(billRepo, appointmentRepo, cfg.Log)

	application := app.New(cfg,
		health.NewHandler(cfg),
		appointmenthandler.NewAppointmentHandler(appointmentSvc, appointmentvalidator.New(), cfg.Log),
		billinghandler.NewBillHandler(billingSvc, billingvalidator.New(), cfg.Log),
		schedulehandler.NewScheduleHandler(availability, cfg.Log),
	)

	if producer != nil {
		application.OnShutdown(func(ctx context.Context) error {
			return producer.Close()
		})
	}
	application.OnShutdown(func(ctx context.Context) error {
		return cfg.Client.Mongo.Disconnect(ctx)
	})

	if err := application.Run(); err != nil {
		cfg.Log.Fatal("Server terminated with error", "error", err)
	}
}
