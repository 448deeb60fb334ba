package stats

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/fittrack/pkg"
)

// Sample is a timestamped numeric observation, the unit all aggregation
// functions operate on. Entry rows are converted to samples by the
// analyzer before any math happens.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// WeekBucket is one Monday..Sunday aggregation bucket.
type WeekBucket struct {
	WeekStart time.Time `json:"weekStart"`
	Value     float64   `json:"value"`
	Count     int       `json:"count"`
}

// LatestValue returns the value of the sample with the newest timestamp.
// For equal timestamps the later sample in the slice wins.
func LatestValue(samples []Sample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if !s.Timestamp.Before(latest.Timestamp) {
			latest = s
		}
	}
	return latest.Value, true
}

// SumOverWindow sums sample values inside the window, bounds inclusive.
func SumOverWindow(samples []Sample, window pkg.Window) float64 {
	var sum float64
	for _, s := range samples {
		if window.Contains(s.Timestamp) {
			sum += s.Value
		}
	}
	return sum
}

// CountOverWindow counts samples inside the window, bounds inclusive.
func CountOverWindow(samples []Sample, window pkg.Window) int {
	var count int
	for _, s := range samples {
		if window.Contains(s.Timestamp) {
			count++
		}
	}
	return count
}

// PercentageOfGoal returns round(current/goal*100) clamped to [0, 100].
// A goal of zero or less yields 0, never a division error.
func PercentageOfGoal(current, goal float64) int {
	if goal <= 0 {
		return 0
	}
	pct := int(math.Round(current / goal * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// BucketByDayOfWeek sums samples into seven Monday..Sunday buckets for
// the week starting at weekStart (a Monday, UTC). The observed flags
// mark days that had at least one sample.
func BucketByDayOfWeek(samples []Sample, weekStart time.Time) (values [7]float64, observed [7]bool) {
	weekEnd := pkg.EndOfDay(weekStart.AddDate(0, 0, 6))
	week := pkg.Window{From: weekStart, To: weekEnd}
	for _, s := range samples {
		if !week.Contains(s.Timestamp) {
			continue
		}
		day := dayOfWeekIndex(s.Timestamp)
		values[day] += s.Value
		observed[day] = true
	}
	return values, observed
}

// Aggregator folds the sample values of one week bucket into a single
// number.
type Aggregator func(values []float64) float64

func SumValues(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

func AvgValues(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return SumValues(values) / float64(len(values))
}

// BucketByWeek groups samples into weeks Monday..Sunday buckets ending
// with the week containing now, most recent last. Weeks without samples
// produce a zero-valued bucket.
func BucketByWeek(samples []Sample, weeks int, now time.Time, aggregate Aggregator) []WeekBucket {
	if weeks <= 0 {
		return []WeekBucket{}
	}

	currentWeekStart := pkg.StartOfWeek(now)
	buckets := make([]WeekBucket, weeks)
	values := make([][]float64, weeks)
	for i := 0; i < weeks; i++ {
		buckets[i].WeekStart = currentWeekStart.AddDate(0, 0, -7*(weeks-1-i))
	}

	firstWeekStart := buckets[0].WeekStart
	for _, s := range samples {
		weekStart := pkg.StartOfWeek(s.Timestamp)
		if weekStart.Before(firstWeekStart) || weekStart.After(currentWeekStart) {
			continue
		}
		i := int(weekStart.Sub(firstWeekStart).Hours() / (24 * 7))
		values[i] = append(values[i], s.Value)
	}

	for i := range buckets {
		buckets[i].Count = len(values[i])
		buckets[i].Value = aggregate(values[i])
	}
	return buckets
}

// DistributionByCategory counts occurrences per category. Categories
// that never occur are simply absent, zero counts are not emitted.
func DistributionByCategory(categories []string) map[string]int {
	distribution := make(map[string]int)
	for _, c := range categories {
		distribution[c]++
	}
	return distribution
}

// ChangeOverWindow returns latest minus earliest sample value within the
// window. Fewer than two samples in the window yield 0.
func ChangeOverWindow(samples []Sample, window pkg.Window) float64 {
	inWindow := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if window.Contains(s.Timestamp) {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) < 2 {
		return 0
	}
	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].Timestamp.Before(inWindow[j].Timestamp)
	})
	return inWindow[len(inWindow)-1].Value - inWindow[0].Value
}

// CarryForwardMissingDays fills gaps in a 7-day series: days without an
// observation take the last observed value, days before the first
// observation stay 0.
func CarryForwardMissingDays(values [7]float64, observed [7]bool) [7]float64 {
	var filled [7]float64
	var last float64
	var seen bool
	for i := 0; i < 7; i++ {
		if observed[i] {
			last = values[i]
			seen = true
		}
		if seen {
			filled[i] = last
		}
	}
	return filled
}

// dayOfWeekIndex maps Monday to 0 and Sunday to 6.
func dayOfWeekIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// LatestByDayOfWeek keeps the newest sample value per Monday..Sunday
// day for the week starting at weekStart. Used for level series like
// body weight, where summing same-day readings makes no sense.
func LatestByDayOfWeek(samples []Sample, weekStart time.Time) (values [7]float64, observed [7]bool) {
	weekEnd := pkg.EndOfDay(weekStart.AddDate(0, 0, 6))
	week := pkg.Window{From: weekStart, To: weekEnd}
	var newest [7]time.Time
	for _, s := range samples {
		if !week.Contains(s.Timestamp) {
			continue
		}
		day := dayOfWeekIndex(s.Timestamp)
		if !observed[day] || !s.Timestamp.Before(newest[day]) {
			values[day] = s.Value
			newest[day] = s.Timestamp
			observed[day] = true
		}
	}
	return values, observed
}
