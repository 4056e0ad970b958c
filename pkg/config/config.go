package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"medibook/pkg/client"
	"medibook/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultSlotCapacity      int
	RescheduleLimit          int
	RescheduleLeadTime       time.Duration
	PreferredHourWindow      int
	SlotUpdateTopic          string
	BroadcastDisabled        bool
	ScheduleSearchWindowDays int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultSlotCapacity:      getEnvNum(EnvDefaultSlotCapacity, DefaultDefaultSlotCapacity),
		RescheduleLimit:          getEnvNum(EnvRescheduleLimit, DefaultRescheduleLimit),
		RescheduleLeadTime:       getEnvDuration(EnvRescheduleLeadTime, DefaultRescheduleLeadTime),
		PreferredHourWindow:      getEnvNum(EnvPreferredHourWindow, DefaultPreferredHourWindow),
		SlotUpdateTopic:          getEnvStr(EnvSlotUpdateTopic, DefaultSlotUpdateTopic),
		BroadcastDisabled:        getEnvBool(EnvBroadcastDisabled, false),
		ScheduleSearchWindowDays: getEnvNum(EnvScheduleSearchWindow, DefaultScheduleSearchWindow),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.DefaultSlotCapacity <= 0 {
		errs = append(errs, fmt.Sprintf("DefaultSlotCapacity must be positive, got: %d", cfg.DefaultSlotCapacity))
	}
	if cfg.RescheduleLimit < 0 {
		errs = append(errs, fmt.Sprintf("RescheduleLimit cannot be negative, got: %d", cfg.RescheduleLimit))
	}
	if cfg.RescheduleLeadTime <= 0 {
		errs = append(errs, fmt.Sprintf("RescheduleLeadTime must be positive, got: %s", cfg.RescheduleLeadTime))
	}
	if cfg.PreferredHourWindow < 0 {
		errs = append(errs, fmt.Sprintf("PreferredHourWindow cannot be negative, got: %d", cfg.PreferredHourWindow))
	}
	if cfg.SlotUpdateTopic == "" {
		errs = append(errs, "SlotUpdateTopic cannot be empty")
	}
	if cfg.ScheduleSearchWindowDays <= 0 {
		errs = append(errs, fmt.Sprintf("ScheduleSearchWindowDays must be positive, got: %d", cfg.ScheduleSearchWindowDays))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_slot_capacity", cfg.DefaultSlotCapacity,
		"reschedule_limit", cfg.RescheduleLimit,
		"reschedule_lead_time", cfg.RescheduleLeadTime,
		"preferred_hour_window", cfg.PreferredHourWindow,
		"slot_update_topic", cfg.SlotUpdateTopic,
		"broadcast_disabled", cfg.BroadcastDisabled,
		"schedule_search_window_days", cfg.ScheduleSearchWindowDays,
	)
}

var mongoCredentialsRe = regexp.MustCompile(`(mongodb(?:\+srv)?://)[^@/]+@`)

func redactMongoURI(uri string) string {
	return mongoCredentialsRe.ReplaceAllString(uri, "$1***@")
}
