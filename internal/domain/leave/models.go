package leave

import "time"

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

const (
	TypeRegular   = "Regular"
	TypeEmergency = "Emergency"
)

// MealAll marks a leave covering every meal of the day.
const MealAll = "all"

type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"uid"`
	UserName      string    `json:"userName"`
	Date          string    `json:"date"`
	Meal          string    `json:"meal"`
	Type          string    `json:"type"`
	ExceptionCase bool      `json:"exceptionCase"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"timestamp"`
}

type Filter struct {
	// Status is a canonical status; empty or "All" lists every record.
	Status string
	Date   string
	Limit  int
	Offset int
}

type ListResult struct {
	Records []Record
	Total   int
}
