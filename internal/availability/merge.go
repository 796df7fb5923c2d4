// Package availability classifies grid cells from free/busy and event data
// and searches the resulting rows for bookable gaps.
package availability

import (
	"strings"
	"time"

	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/timegrid"
)

// BusyPlaceholder annotates cells that are busy but carry no readable event
// detail, e.g. private events visible only through the free/busy aggregate.
const BusyPlaceholder = "Busy"

// noTitleSentinel is what the backend reports for events saved without a summary.
const noTitleSentinel = "(no title)"

// Event is the annotation view of a calendar event: the interval for the
// overlap test plus the display fields copied onto matching cells. Organizer
// resolution happens upstream, where the room catalog is available.
type Event struct {
	Start         time.Time
	End           time.Time
	Summary       string
	OrganizerName string
}

// Cell is the merged availability view of one room for one time column.
type Cell struct {
	StartISO  string
	EndISO    string
	Busy      bool
	Peek      string
	HoverUser string
}

// RoomRow is one row of the weekly grid: a room plus one cell per column.
type RoomRow struct {
	Room       string
	Label      string
	CalendarID string
	Cells      []Cell
}

// MergeCells derives one cell per column from a room's busy blocks and event
// list. The busy boolean comes exclusively from the free/busy blocks; events
// only enrich already-busy cells with a summary and organizer. A busy cell
// with no matching event (the aggregate can include events the service
// cannot read) falls back to the placeholder annotation. Events are assumed
// non-overlapping within one room, so the first match wins.
func MergeCells(columns []timegrid.Column, busy []calendar.BusyBlock, events []Event) []Cell {
	cells := make([]Cell, 0, len(columns))
	for _, column := range columns {
		cell := Cell{StartISO: column.StartISO, EndISO: column.EndISO}

		if calendar.AnyOverlap(column.Start, column.End, busy) {
			cell.Busy = true
			cell.Peek = BusyPlaceholder
			for _, event := range events {
				if !calendar.Overlaps(column.Start, column.End, event.Start, event.End) {
					continue
				}
				if summary := strings.TrimSpace(event.Summary); summary != "" && summary != noTitleSentinel {
					cell.Peek = summary
				}
				cell.HoverUser = event.OrganizerName
				break
			}
		}

		cells = append(cells, cell)
	}
	return cells
}
