package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"shopqueue/queue-service/internal/models"
)

func computeTimeReport(entries []models.QueueEntry) models.TimeReport {
	var waits []int
	var services []int
	totalService := 0

	for _, entry := range entries {
		if entry.ActualWaitTime > 0 {
			waits = append(waits, entry.ActualWaitTime)
		}
		if entry.CalledAt != nil && entry.CompletedAt != nil {
			minutes := minutesBetween(*entry.CalledAt, *entry.CompletedAt)
			services = append(services, minutes)
			totalService += minutes
		}
	}

	return models.TimeReport{
		Wait:             describe(waits),
		Service:          describe(services),
		TotalServiceTime: totalService,
		WaitSamples:      len(waits),
		ServiceSamples:   len(services),
	}
}

// describe computes average (rounded), median, min, and max. The median
// of an even-length sorted series averages the two middle values.
func describe(values []int) models.TimeStats {
	if len(values) == 0 {
		return models.TimeStats{}
	}

	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	sum := 0
	for _, v := range sorted {
		sum += v
	}

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = float64(sorted[mid])
	} else {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	}

	return models.TimeStats{
		Average: int(math.Round(float64(sum) / float64(len(sorted)))),
		Median:  median,
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
	}
}

const peakShare = 0.3

func computePeakReport(entries []models.QueueEntry) models.PeakHourReport {
	type bucket struct {
		count     int
		waitSum   int
		waitN     int
		completed int
	}
	var buckets [24]bucket

	for _, entry := range entries {
		hour := entry.CreatedAt.Local().Hour()
		b := &buckets[hour]
		b.count++
		if entry.ActualWaitTime > 0 {
			b.waitSum += entry.ActualWaitTime
			b.waitN++
		}
		if entry.Status == models.StatusCompleted {
			b.completed++
		}
	}

	hours := make([]models.HourStats, 24)
	for hour := range buckets {
		b := buckets[hour]
		stats := models.HourStats{Hour: hour, QueueCount: b.count}
		if b.waitN > 0 {
			stats.AverageWaitTime = int(math.Round(float64(b.waitSum) / float64(b.waitN)))
		}
		if b.count > 0 {
			stats.CompletionRate = float64(b.completed) / float64(b.count) * 100
		}
		hours[hour] = stats
	}

	ranked := make([]models.HourStats, len(hours))
	copy(ranked, hours)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QueueCount > ranked[j].QueueCount
	})

	// Peak and quiet are each the top/bottom 30% of all 24 buckets,
	// regardless of the shop's operating hours.
	share := int(math.Ceil(24 * peakShare))
	peak := make([]int, 0, share)
	quiet := make([]int, 0, share)
	for i := 0; i < share; i++ {
		peak = append(peak, ranked[i].Hour)
		quiet = append(quiet, ranked[len(ranked)-1-i].Hour)
	}

	average := float64(len(entries)) / 24.0
	staffing := make([]models.StaffingAdvice, 24)
	for hour, stats := range hours {
		staffing[hour] = adviseStaffing(stats, average)
	}

	return models.PeakHourReport{
		Hours:      hours,
		PeakHours:  peak,
		QuietHours: quiet,
		Staffing:   staffing,
	}
}

// adviseStaffing applies the staffing rules in order; the first match
// wins. Empty buckets are always low volume.
func adviseStaffing(stats models.HourStats, average float64) models.StaffingAdvice {
	advice := models.StaffingAdvice{Hour: stats.Hour}
	count := float64(stats.QueueCount)

	switch {
	case stats.QueueCount == 0:
		advice.Recommended = 1
		advice.Reason = "low volume"
	case count > 2*average:
		advice.Recommended = atLeast(2, ceilDiv(stats.QueueCount, 5))
		advice.Reason = "high volume"
	case count > 1.5*average:
		advice.Recommended = atLeast(2, ceilDiv(stats.QueueCount, 8))
		advice.Reason = "above average"
	case count < peakShare*average:
		advice.Recommended = 1
		advice.Reason = "low volume"
	case stats.AverageWaitTime > 30:
		advice.Recommended = atLeast(2, ceilDiv(stats.AverageWaitTime, 15))
		advice.Reason = "long wait"
	case stats.CompletionRate < 70:
		advice.Recommended = atLeast(2, int(math.Ceil((100-stats.CompletionRate)/20)))
		advice.Reason = "low completion"
	default:
		advice.Recommended = 1
		advice.Reason = "normal"
	}
	return advice
}

const serviceListLimit = 10

func computeServiceReport(entries []models.QueueEntry) models.ServiceReport {
	type agg struct {
		id         string
		name       string
		total      int
		completed  int
		waitSum    int
		waitN      int
		serviceSum int
		serviceN   int
		revenue    decimal.Decimal
	}
	groups := map[string]*agg{}

	for _, entry := range entries {
		seen := map[string]bool{}
		for _, line := range entry.ServiceLines {
			group, ok := groups[line.ServiceID]
			if !ok {
				group = &agg{id: line.ServiceID, name: line.ServiceName}
				groups[line.ServiceID] = group
			}
			group.revenue = group.revenue.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))

			if seen[line.ServiceID] {
				continue
			}
			seen[line.ServiceID] = true

			group.total++
			if entry.Status == models.StatusCompleted {
				group.completed++
			}
			if entry.ActualWaitTime > 0 {
				group.waitSum += entry.ActualWaitTime
				group.waitN++
			}
			if entry.CalledAt != nil && entry.CompletedAt != nil {
				group.serviceSum += minutesBetween(*entry.CalledAt, *entry.CompletedAt)
				group.serviceN++
			}
		}
	}

	services := make([]models.ServiceStats, 0, len(groups))
	for _, group := range groups {
		stats := models.ServiceStats{
			ServiceID:      group.id,
			ServiceName:    group.name,
			TotalCount:     group.total,
			CompletedCount: group.completed,
			Revenue:        group.revenue,
		}
		if group.waitN > 0 {
			stats.AverageWaitTime = int(math.Round(float64(group.waitSum) / float64(group.waitN)))
		}
		if group.serviceN > 0 {
			stats.AverageServiceTime = int(math.Round(float64(group.serviceSum) / float64(group.serviceN)))
		}
		stats.PopularityScore = popularityScore(stats)
		services = append(services, stats)
	}

	byCountDesc := func(items []models.ServiceStats) {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].TotalCount != items[j].TotalCount {
				return items[i].TotalCount > items[j].TotalCount
			}
			return items[i].ServiceID < items[j].ServiceID
		})
	}

	byCountDesc(services)
	top := firstN(services, serviceListLimit)

	least := make([]models.ServiceStats, len(services))
	copy(least, services)
	sort.SliceStable(least, func(i, j int) bool {
		if least[i].TotalCount != least[j].TotalCount {
			return least[i].TotalCount < least[j].TotalCount
		}
		return least[i].ServiceID < least[j].ServiceID
	})

	return models.ServiceReport{
		Services:     services,
		TopServices:  top,
		LeastPopular: firstN(least, serviceListLimit),
	}
}

// popularityScore weighs completion (40%), revenue (30%, capped at
// 100k), volume (20%, capped at 1000 entries), and speed (10%).
func popularityScore(stats models.ServiceStats) int {
	completionRate := 0.0
	if stats.TotalCount > 0 {
		completionRate = float64(stats.CompletedCount) / float64(stats.TotalCount) * 100
	}
	revenue, _ := stats.Revenue.Float64()

	score := 0.4*completionRate +
		0.3*math.Min(revenue/1000, 100) +
		0.2*math.Min(float64(stats.TotalCount)/10, 100) +
		0.1*math.Max(0, 100-float64(stats.AverageWaitTime))
	return int(math.Round(score))
}

func minutesBetween(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}

func ceilDiv(value, divisor int) int {
	return int(math.Ceil(float64(value) / float64(divisor)))
}

func atLeast(floor, value int) int {
	if value < floor {
		return floor
	}
	return value
}

func firstN(items []models.ServiceStats, n int) []models.ServiceStats {
	if len(items) <= n {
		return append([]models.ServiceStats(nil), items...)
	}
	return append([]models.ServiceStats(nil), items[:n]...)
}
