package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medibook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Booking engine defaults.
	DefaultDefaultSlotCapacity  = 3
	DefaultRescheduleLimit      = 2
	DefaultRescheduleLeadTime   = 4 * time.Hour
	DefaultPreferredHourWindow  = 1 // hours either side of the preferred start
	DefaultSlotUpdateTopic      = "schedule.slot-updates"
	DefaultScheduleSearchWindow = 30 // days scanned forward during reschedule
)

// Named day periods used when a reschedule request carries a period instead of
// an exact time. Hours are inclusive start, exclusive end, local clock.
var DayPeriods = map[string][2]int{
	"morning":   {8, 12},
	"afternoon": {13, 17},
	"evening":   {17, 20},
}
