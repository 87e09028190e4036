package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QueueEntry struct {
	ID                string        `json:"id"`
	ShopID            string        `json:"shop_id"`
	QueueNumber       string        `json:"queue_number"`
	Status            string        `json:"status"`
	Priority          string        `json:"priority"`
	EstimatedWaitTime int           `json:"estimated_wait_time"`
	ActualWaitTime    int           `json:"actual_wait_time"`
	CreatedAt         time.Time     `json:"created_at"`
	CalledAt          *time.Time    `json:"called_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
	EmployeeID        *string       `json:"employee_id,omitempty"`
	ServiceLines      []ServiceLine `json:"service_lines,omitempty"`
	Notes             *string       `json:"notes,omitempty"`
}

type ServiceLine struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

const (
	StatusWaiting   = "waiting"
	StatusConfirmed = "confirmed"
	StatusServing   = "serving"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// IsTerminal reports whether no further status change is permitted.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// PriorityRank orders urgent ahead of high ahead of normal. Unknown
// priorities sort last.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 3
	default:
		return 4
	}
}
