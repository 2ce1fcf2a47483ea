package tasks

import (
	"fmt"
	"path/filepath"

	"github.com/desertthunder/shelf/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchEntries Phase = iota
	LookupDetails
	Assembled
	ExportList
)

func (p Phase) String() string {
	switch p {
	case FetchEntries:
		return "fetch_entries"
	case LookupDetails:
		return "lookup_details"
	case Assembled:
		return "assembled"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

func fetchEntriesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntries,
		Step:    1,
		Total:   1,
		Message: "Fetching your lists...",
	}
}

func lookupDetailsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Looking up books [%d/%d]", step, total),
	}
}

func doneUpdate(r *AssemblyResult) ProgressUpdate {
	msg := fmt.Sprintf("Loaded %d books", r.Buckets.Len())
	if n := len(r.Failures); n > 0 {
		msg += fmt.Sprintf(" (%d unavailable)", n)
	}
	return ProgressUpdate{
		Phase:   Assembled,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    r,
	}
}

func exportCompletedUpdate(step, total int, list models.ListName, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, list.Label(), filepath.Base(path)),
	}
}

func exportFailedUpdate(step, total int, list models.ListName, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, list.Label(), err),
	}
}
