package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopqueue/queue-service/internal/models"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name   string
		values []int
		want   models.TimeStats
	}{
		{
			name:   "empty",
			values: nil,
			want:   models.TimeStats{},
		},
		{
			name:   "odd length takes middle",
			values: []int{20, 5, 9},
			want:   models.TimeStats{Average: 11, Median: 9, Min: 5, Max: 20},
		},
		{
			name:   "even length averages middles",
			values: []int{8, 4},
			want:   models.TimeStats{Average: 6, Median: 6, Min: 4, Max: 8},
		},
		{
			name:   "fractional median",
			values: []int{3, 4, 10, 20},
			want:   models.TimeStats{Average: 9, Median: 7, Min: 3, Max: 20},
		},
		{
			name:   "average rounds to nearest",
			values: []int{1, 2},
			want:   models.TimeStats{Average: 2, Median: 1.5, Min: 1, Max: 2},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.values))
		})
	}
}

func TestComputeTimeReport(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	stamp := func(m int) *time.Time {
		ts := base.Add(time.Duration(m) * time.Minute)
		return &ts
	}

	entries := []models.QueueEntry{
		{ActualWaitTime: 12, CalledAt: stamp(0), CompletedAt: stamp(20)},
		{ActualWaitTime: 8, CalledAt: stamp(30), CompletedAt: stamp(40)},
		// Never called: contributes to neither series.
		{ActualWaitTime: 0},
		// Still serving: waited, but no service duration yet.
		{ActualWaitTime: 6, CalledAt: stamp(50)},
	}

	report := computeTimeReport(entries)

	assert.Equal(t, models.TimeStats{Average: 9, Median: 8, Min: 6, Max: 12}, report.Wait)
	assert.Equal(t, models.TimeStats{Average: 15, Median: 15, Min: 10, Max: 20}, report.Service)
	assert.Equal(t, 30, report.TotalServiceTime)
	assert.Equal(t, 3, report.WaitSamples)
	assert.Equal(t, 2, report.ServiceSamples)
}

func TestAdviseStaffing(t *testing.T) {
	cases := []struct {
		name    string
		stats   models.HourStats
		average float64
		want    models.StaffingAdvice
	}{
		{
			name:    "empty bucket",
			stats:   models.HourStats{Hour: 3},
			average: 0,
			want:    models.StaffingAdvice{Hour: 3, Recommended: 1, Reason: "low volume"},
		},
		{
			name:    "high volume scales by five",
			stats:   models.HourStats{Hour: 12, QueueCount: 22, CompletionRate: 90},
			average: 10,
			want:    models.StaffingAdvice{Hour: 12, Recommended: 5, Reason: "high volume"},
		},
		{
			name:    "high volume floor of two",
			stats:   models.HourStats{Hour: 12, QueueCount: 7, CompletionRate: 90},
			average: 3,
			want:    models.StaffingAdvice{Hour: 12, Recommended: 2, Reason: "high volume"},
		},
		{
			name:    "above average scales by eight",
			stats:   models.HourStats{Hour: 13, QueueCount: 17, CompletionRate: 90},
			average: 10,
			want:    models.StaffingAdvice{Hour: 13, Recommended: 3, Reason: "above average"},
		},
		{
			name:    "well below average",
			stats:   models.HourStats{Hour: 7, QueueCount: 2, CompletionRate: 100},
			average: 10,
			want:    models.StaffingAdvice{Hour: 7, Recommended: 1, Reason: "low volume"},
		},
		{
			name:    "long wait",
			stats:   models.HourStats{Hour: 14, QueueCount: 10, AverageWaitTime: 45, CompletionRate: 90},
			average: 10,
			want:    models.StaffingAdvice{Hour: 14, Recommended: 3, Reason: "long wait"},
		},
		{
			name:    "low completion",
			stats:   models.HourStats{Hour: 15, QueueCount: 10, CompletionRate: 55},
			average: 10,
			want:    models.StaffingAdvice{Hour: 15, Recommended: 3, Reason: "low completion"},
		},
		{
			name:    "normal hour",
			stats:   models.HourStats{Hour: 16, QueueCount: 10, AverageWaitTime: 12, CompletionRate: 95},
			average: 10,
			want:    models.StaffingAdvice{Hour: 16, Recommended: 1, Reason: "normal"},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adviseStaffing(tt.stats, tt.average))
		})
	}
}

func TestComputePeakReport(t *testing.T) {
	at := func(hour, n int) []models.QueueEntry {
		entries := make([]models.QueueEntry, n)
		for i := range entries {
			entries[i] = models.QueueEntry{
				Status:         models.StatusCompleted,
				ActualWaitTime: 10,
				CreatedAt:      time.Date(2025, 6, 1, hour, 5+i, 0, 0, time.Local),
			}
		}
		return entries
	}

	var entries []models.QueueEntry
	entries = append(entries, at(10, 8)...)
	entries = append(entries, at(11, 6)...)
	entries = append(entries, at(14, 4)...)
	entries = append(entries, at(17, 2)...)
	entries[0].Status = models.StatusCancelled

	report := computePeakReport(entries)

	require.Len(t, report.Hours, 24)
	require.Len(t, report.Staffing, 24)
	// ceil(24 * 0.3) buckets on each end.
	require.Len(t, report.PeakHours, 8)
	require.Len(t, report.QuietHours, 8)

	assert.Equal(t, 10, report.PeakHours[0])
	assert.Equal(t, 11, report.PeakHours[1])
	assert.Equal(t, 14, report.PeakHours[2])
	assert.Equal(t, 17, report.PeakHours[3])
	for _, hour := range report.QuietHours {
		assert.Zero(t, report.Hours[hour].QueueCount, "quiet hour %d has traffic", hour)
	}

	ten := report.Hours[10]
	assert.Equal(t, 8, ten.QueueCount)
	assert.Equal(t, 10, ten.AverageWaitTime)
	assert.InDelta(t, 87.5, ten.CompletionRate, 0.001)

	// 20 entries over 24 buckets averages under one; eight in a single
	// hour is high volume.
	assert.Equal(t, models.StaffingAdvice{Hour: 10, Recommended: 2, Reason: "high volume"}, report.Staffing[10])
	assert.Equal(t, models.StaffingAdvice{Hour: 0, Recommended: 1, Reason: "low volume"}, report.Staffing[0])
}

func TestComputeServiceReport(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	stamp := func(m int) *time.Time {
		ts := base.Add(time.Duration(m) * time.Minute)
		return &ts
	}
	price := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}

	entries := []models.QueueEntry{
		{
			ID: "q1", Status: models.StatusCompleted, ActualWaitTime: 10,
			CalledAt: stamp(0), CompletedAt: stamp(20),
			ServiceLines: []models.ServiceLine{
				{ServiceID: "cut", ServiceName: "Haircut", Quantity: 1, UnitPrice: price("150.00")},
				// Second line for the same service: revenue counts, the
				// entry still counts once.
				{ServiceID: "cut", ServiceName: "Haircut", Quantity: 2, UnitPrice: price("150.00")},
			},
		},
		{
			ID: "q2", Status: models.StatusCompleted, ActualWaitTime: 20,
			CalledAt: stamp(30), CompletedAt: stamp(40),
			ServiceLines: []models.ServiceLine{
				{ServiceID: "cut", ServiceName: "Haircut", Quantity: 1, UnitPrice: price("150.00")},
				{ServiceID: "dye", ServiceName: "Coloring", Quantity: 1, UnitPrice: price("450.50")},
			},
		},
		{
			ID: "q3", Status: models.StatusCancelled,
			ServiceLines: []models.ServiceLine{
				{ServiceID: "dye", ServiceName: "Coloring", Quantity: 1, UnitPrice: price("450.50")},
			},
		},
	}

	report := computeServiceReport(entries)
	require.Len(t, report.Services, 2)

	cut := report.Services[0]
	assert.Equal(t, "cut", cut.ServiceID)
	assert.Equal(t, 2, cut.TotalCount)
	assert.Equal(t, 2, cut.CompletedCount)
	assert.Equal(t, 15, cut.AverageWaitTime)
	assert.Equal(t, 15, cut.AverageServiceTime)
	assert.True(t, cut.Revenue.Equal(price("600.00")), "revenue=%s", cut.Revenue)

	dye := report.Services[1]
	assert.Equal(t, "dye", dye.ServiceID)
	assert.Equal(t, 2, dye.TotalCount)
	assert.Equal(t, 1, dye.CompletedCount)
	assert.True(t, dye.Revenue.Equal(price("901.00")), "revenue=%s", dye.Revenue)

	assert.Equal(t, "cut", report.TopServices[0].ServiceID)
	assert.Equal(t, "cut", report.LeastPopular[0].ServiceID, "equal counts fall back to id order")
}

func TestPopularityScore(t *testing.T) {
	stats := models.ServiceStats{
		TotalCount:      10,
		CompletedCount:  8,
		AverageWaitTime: 20,
		Revenue:         decimal.NewFromInt(500),
	}
	// 0.4*80 + 0.3*0.5 + 0.2*1 + 0.1*80 rounds to 40.
	assert.Equal(t, 40, popularityScore(stats))

	capped := models.ServiceStats{
		TotalCount:      2000,
		CompletedCount:  2000,
		AverageWaitTime: 300,
		Revenue:         decimal.NewFromInt(5_000_000),
	}
	// Revenue and volume both cap at 100; the wait term floors at zero.
	assert.Equal(t, 90, popularityScore(capped))

	assert.Equal(t, 10, popularityScore(models.ServiceStats{}))
}
