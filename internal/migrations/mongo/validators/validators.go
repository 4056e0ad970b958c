package validators

import "go.mongodb.org/mongo-driver/bson"

// Schema validators applied at collection creation. They guard the
// invariants that must hold even if a document is written outside the
// service: capacity counters are non-negative and statuses come from the
// known sets.

func Schedule() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"doctor_id", "date", "time_slots"},
			"properties": bson.M{
				"doctor_id": bson.M{"bsonType": "string"},
				"date": bson.M{
					"bsonType": "string",
					"pattern":  `^\d{4}-\d{2}-\d{2}$`,
				},
				"time_slots": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": []string{"slot_id", "start_time", "end_time", "max_bookings"},
						"properties": bson.M{
							"slot_id":      bson.M{"bsonType": "string"},
							"max_bookings": bson.M{"bsonType": "int", "minimum": 1},
							"booked_count": bson.M{"bsonType": "int", "minimum": 0},
						},
					},
				},
			},
		},
	}
}

func Appointment() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"booking_code", "patient_id", "doctor_id", "schedule_id", "slot_id", "date", "status"},
			"properties": bson.M{
				"booking_code": bson.M{"bsonType": "string"},
				"patient_id":   bson.M{"bsonType": "string"},
				"doctor_id":    bson.M{"bsonType": "string"},
				"status": bson.M{
					"enum": []string{"pending", "confirmed", "rescheduled", "completed", "cancelled", "rejected", "no-show"},
				},
				"queue_number":     bson.M{"bsonType": "int", "minimum": 0},
				"reschedule_count": bson.M{"bsonType": "int", "minimum": 0},
			},
		},
	}
}

func Bill() bson.M {
	subBill := bson.M{
		"bsonType": "object",
		"required": []string{"amount", "status"},
		"properties": bson.M{
			"amount": bson.M{"bsonType": "long", "minimum": 0},
			"status": bson.M{
				"enum": []string{"pending", "paid", "cancelled", "refunded", "failed"},
			},
		},
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"appointment_id", "booking_code", "patient_id", "consultation", "medication", "hospitalization"},
			"properties": bson.M{
				"appointment_id":  bson.M{"bsonType": "string"},
				"booking_code":    bson.M{"bsonType": "string"},
				"patient_id":      bson.M{"bsonType": "string"},
				"consultation":    subBill,
				"medication":      subBill,
				"hospitalization": subBill,
				"overall_status": bson.M{
					"enum": []string{"unpaid", "partial", "paid"},
				},
			},
		},
	}
}
