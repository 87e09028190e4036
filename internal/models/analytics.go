package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeStats summarizes a series of whole-minute durations.
type TimeStats struct {
	Average int     `json:"average"`
	Median  float64 `json:"median"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

type TimeReport struct {
	Wait             TimeStats `json:"wait"`
	Service          TimeStats `json:"service"`
	TotalServiceTime int       `json:"total_service_time"`
	WaitSamples      int       `json:"wait_samples"`
	ServiceSamples   int       `json:"service_samples"`
}

type HourStats struct {
	Hour            int     `json:"hour"`
	QueueCount      int     `json:"queue_count"`
	AverageWaitTime int     `json:"average_wait_time"`
	CompletionRate  float64 `json:"completion_rate"`
}

type StaffingAdvice struct {
	Hour        int    `json:"hour"`
	Recommended int    `json:"recommended"`
	Reason      string `json:"reason"`
}

type PeakHourReport struct {
	Hours      []HourStats      `json:"hours"`
	PeakHours  []int            `json:"peak_hours"`
	QuietHours []int            `json:"quiet_hours"`
	Staffing   []StaffingAdvice `json:"staffing"`
}

type ServiceStats struct {
	ServiceID          string          `json:"service_id"`
	ServiceName        string          `json:"service_name"`
	TotalCount         int             `json:"total_count"`
	CompletedCount     int             `json:"completed_count"`
	AverageWaitTime    int             `json:"average_wait_time"`
	AverageServiceTime int             `json:"average_service_time"`
	Revenue            decimal.Decimal `json:"revenue"`
	PopularityScore    int             `json:"popularity_score"`
}

type ServiceReport struct {
	Services     []ServiceStats `json:"services"`
	TopServices  []ServiceStats `json:"top_services"`
	LeastPopular []ServiceStats `json:"least_popular"`
}

// AnalyticsScope identifies what a snapshot was computed over. Two
// requests share a snapshot only when their scopes are identical.
type AnalyticsScope struct {
	ShopID     string    `json:"shop_id"`
	DateFrom   time.Time `json:"date_from"`
	DateTo     time.Time `json:"date_to"`
	EmployeeID string    `json:"employee_id,omitempty"`
	ServiceID  string    `json:"service_id,omitempty"`
}

func (s AnalyticsScope) Equal(other AnalyticsScope) bool {
	return s.ShopID == other.ShopID &&
		s.DateFrom.Equal(other.DateFrom) &&
		s.DateTo.Equal(other.DateTo) &&
		s.EmployeeID == other.EmployeeID &&
		s.ServiceID == other.ServiceID
}

type AnalyticsSnapshot struct {
	Scope      AnalyticsScope `json:"scope"`
	Time       TimeReport     `json:"time"`
	PeakHours  PeakHourReport `json:"peak_hours"`
	Services   ServiceReport  `json:"services"`
	ComputedAt time.Time      `json:"computed_at"`
}
