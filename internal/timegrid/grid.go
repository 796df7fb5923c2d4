// Package timegrid builds the week-level slot grid shared by every room row.
package timegrid

import "time"

const (
	// WeekDays is the number of bookable days in a grid week (Monday through Friday).
	WeekDays = 5

	defaultSlotMinutes   = 30
	defaultWorkStartHour = 8
	defaultWorkEndHour   = 17

	minSlotMinutes = 15
	maxSlotMinutes = 120
)

// Options control slot sizing and working hours for a grid week.
type Options struct {
	SlotMinutes   int
	WorkStartHour int
	WorkEndHour   int
	Location      *time.Location
}

// Normalize applies defaults and clamps the slot duration to the supported range.
func (o Options) Normalize() Options {
	if o.SlotMinutes == 0 {
		o.SlotMinutes = defaultSlotMinutes
	}
	if o.SlotMinutes < minSlotMinutes {
		o.SlotMinutes = minSlotMinutes
	}
	if o.SlotMinutes > maxSlotMinutes {
		o.SlotMinutes = maxSlotMinutes
	}
	if o.WorkStartHour == 0 && o.WorkEndHour == 0 {
		o.WorkStartHour = defaultWorkStartHour
		o.WorkEndHour = defaultWorkEndHour
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Column is one grid cell along the time axis. Columns are week-global:
// every room row has exactly one cell per column, in column order.
type Column struct {
	Start    time.Time
	End      time.Time
	StartISO string
	EndISO   string
	Label    string
}

// Day groups the columns belonging to a single weekday.
type Day struct {
	Label   string
	Columns []Column
}

// Week is the full slot grid for one Monday-to-Friday week.
type Week struct {
	Start         time.Time
	End           time.Time
	SlotMinutes   int
	WorkStartHour int
	WorkEndHour   int
	SlotsPerDay   int
	Days          []Day
	Columns       []Column
}

// MondayOf returns midnight of the Monday in the week containing t,
// in the provided location.
func MondayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// BuildWeek produces the ordered column sequence for the week containing
// weekStart. Any day of the week may be passed; it is normalized to that
// week's Monday. When WorkEndHour <= WorkStartHour every day is empty;
// callers are expected to reject that configuration upstream.
func BuildWeek(weekStart time.Time, opts Options) Week {
	opts = opts.Normalize()
	monday := MondayOf(weekStart, opts.Location)
	step := time.Duration(opts.SlotMinutes) * time.Minute

	week := Week{
		Start:         monday,
		End:           monday.AddDate(0, 0, WeekDays),
		SlotMinutes:   opts.SlotMinutes,
		WorkStartHour: opts.WorkStartHour,
		WorkEndHour:   opts.WorkEndHour,
		Days:          make([]Day, 0, WeekDays),
	}

	for day := 0; day < WeekDays; day++ {
		base := monday.AddDate(0, 0, day)
		dayStart := time.Date(base.Year(), base.Month(), base.Day(), opts.WorkStartHour, 0, 0, 0, opts.Location)
		dayEnd := time.Date(base.Year(), base.Month(), base.Day(), opts.WorkEndHour, 0, 0, 0, opts.Location)

		columns := make([]Column, 0)
		for start := dayStart; start.Before(dayEnd); start = start.Add(step) {
			end := start.Add(step)
			columns = append(columns, Column{
				Start:    start,
				End:      end,
				StartISO: FormatLocal(start),
				EndISO:   FormatLocal(end),
				Label:    start.Format("15:04"),
			})
		}

		week.Days = append(week.Days, Day{
			Label:   base.Format("Mon 02/01"),
			Columns: columns,
		})
		week.Columns = append(week.Columns, columns...)
	}

	if len(week.Days) > 0 {
		week.SlotsPerDay = len(week.Days[0].Columns)
	}
	return week
}

// FormatLocal renders a wall-clock timestamp without a zone offset, the
// representation used for grid cells and booking payloads.
func FormatLocal(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
