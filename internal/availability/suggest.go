package availability

import "sort"

// MaxSuggestions bounds the cross-room suggestion list. Suggestions are a
// hint for the caller, not an exhaustive availability report.
const MaxSuggestions = 6

// Suggestion is a maximal contiguous run of free cells for one room.
type Suggestion struct {
	Room     string
	Label    string
	StartISO string
	EndISO   string
	Slots    int
}

// Gap locates a contiguous free window found by NextGap.
type Gap struct {
	Index    int
	StartISO string
	EndISO   string
}

// BuildSuggestions collects every maximal free run across all rooms, orders
// them by start time with room label as tie-break, and returns at most
// MaxSuggestions entries.
func BuildSuggestions(rows []RoomRow) []Suggestion {
	suggestions := make([]Suggestion, 0)
	for _, row := range rows {
		start := -1
		for i, cell := range row.Cells {
			if !cell.Busy && start == -1 {
				start = i
			}
			ended := cell.Busy || i == len(row.Cells)-1
			if start == -1 || !ended {
				continue
			}
			end := i
			if cell.Busy {
				end = i - 1
			}
			if end >= start {
				suggestions = append(suggestions, Suggestion{
					Room:     row.Room,
					Label:    row.Label,
					StartISO: row.Cells[start].StartISO,
					EndISO:   row.Cells[end].EndISO,
					Slots:    end - start + 1,
				})
			}
			start = -1
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].StartISO != suggestions[j].StartISO {
			return suggestions[i].StartISO < suggestions[j].StartISO
		}
		return suggestions[i].Label < suggestions[j].Label
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// NextGap scans forward from startCol for the first window of steps
// consecutive free cells. It reports false when no such window exists
// before the grid ends.
func NextGap(cells []Cell, startCol, steps int) (Gap, bool) {
	if steps <= 0 {
		return Gap{}, false
	}
	if startCol < 0 {
		startCol = 0
	}
	for i := startCol; i <= len(cells)-steps; i++ {
		free := true
		for offset := 0; offset < steps; offset++ {
			if cells[i+offset].Busy {
				free = false
				break
			}
		}
		if free {
			return Gap{
				Index:    i,
				StartISO: cells[i].StartISO,
				EndISO:   cells[i+steps-1].EndISO,
			}, true
		}
	}
	return Gap{}, false
}
