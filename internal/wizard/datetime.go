package wizard

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
)

// Bucket groups slots by part of day.
type Bucket string

const (
	BucketMorning   Bucket = "morning"
	BucketAfternoon Bucket = "afternoon"
	BucketEvening   Bucket = "evening"
)

// BucketOf places a HH:MM time: before 12:00 is morning, 12:00 to 16:59 is
// afternoon, 17:00 and later is evening.
func BucketOf(clock string) (Bucket, bool) {
	t, err := civil.ParseTime(normalizeClock(clock))
	if err != nil {
		return "", false
	}
	switch {
	case t.Hour < 12:
		return BucketMorning, true
	case t.Hour < 17:
		return BucketAfternoon, true
	default:
		return BucketEvening, true
	}
}

// UnionSlots merges slot lists into the available times, deduplicated by time
// of day and sorted ascending. Unparseable times are dropped.
func UnionSlots(lists ...[]salonapi.Slot) []string {
	seen := make(map[civil.Time]string)
	for _, list := range lists {
		for _, slot := range list {
			if !slot.Available {
				continue
			}
			t, err := civil.ParseTime(normalizeClock(slot.Time))
			if err != nil {
				continue
			}
			if _, dup := seen[t]; !dup {
				seen[t] = clockString(t)
			}
		}
	}
	keys := make([]civil.Time, 0, len(seen))
	for t := range seen {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return minuteOfDay(keys[i]) < minuteOfDay(keys[j]) })
	out := make([]string, 0, len(keys))
	for _, t := range keys {
		out = append(out, seen[t])
	}
	return out
}

func minuteOfDay(t civil.Time) int {
	return t.Hour*60 + t.Minute
}

func clockString(t civil.Time) string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}

// GroupedSlots are the times of one date split into buckets.
type GroupedSlots struct {
	Morning   []string `json:"morning"`
	Afternoon []string `json:"afternoon"`
	Evening   []string `json:"evening"`
}

// GroupSlots buckets sorted times for display.
func GroupSlots(times []string) GroupedSlots {
	g := GroupedSlots{Morning: []string{}, Afternoon: []string{}, Evening: []string{}}
	for _, t := range times {
		b, ok := BucketOf(t)
		if !ok {
			continue
		}
		switch b {
		case BucketMorning:
			g.Morning = append(g.Morning, t)
		case BucketAfternoon:
			g.Afternoon = append(g.Afternoon, t)
		case BucketEvening:
			g.Evening = append(g.Evening, t)
		}
	}
	return g
}

// DayCell is one day of the month picker.
type DayCell struct {
	Date     civil.Date `json:"date"`
	Disabled bool       `json:"disabled"`
}

// MonthView is the date picker for one month.
type MonthView struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Days  []DayCell `json:"days"`
	// Applied is false when a newer request superseded this one; Days then
	// reflect the latest known month instead.
	Applied bool `json:"applied"`
}

// DateDisabled reports whether a date cannot be picked: before today, or not
// among the dates with availability.
func DateDisabled(d, today civil.Date, available map[civil.Date]struct{}) bool {
	if d.Before(today) {
		return true
	}
	_, ok := available[d]
	return !ok
}

// BuildMonth lays out every day of the month with its disabled flag.
func BuildMonth(year int, month time.Month, availableDates []string, today civil.Date) []DayCell {
	available := make(map[civil.Date]struct{}, len(availableDates))
	for _, raw := range availableDates {
		d, err := civil.ParseDate(raw)
		if err != nil {
			continue
		}
		available[d] = struct{}{}
	}
	first := civil.Date{Year: year, Month: month, Day: 1}
	days := make([]DayCell, 0, 31)
	for d := first; d.Month == month; d = d.AddDays(1) {
		days = append(days, DayCell{Date: d, Disabled: DateDisabled(d, today, available)})
	}
	return days
}

// SlotsView is the time picker for the selected date.
type SlotsView struct {
	Date     civil.Date   `json:"date"`
	Times    []string     `json:"times"`
	Groups   GroupedSlots `json:"groups"`
	Selected string       `json:"selected,omitempty"`
	Applied  bool         `json:"applied"`
}

// SelectDate picks a new date. Any previously selected time is cleared.
func SelectDate(d civil.Date) Action {
	return SetDateTime{Date: &d}
}

// SelectTime picks a time on the already selected date.
func SelectTime(s State, clock string) (Action, error) {
	if s.Date == nil {
		return nil, ErrTimeWithoutDate
	}
	return SetDateTime{Date: s.Date, Time: clock}, nil
}
