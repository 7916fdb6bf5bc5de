package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the bucket an Entry is reported in.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Entry is one outcome of reconciling an item.
type Entry struct {
	Level   Level
	Message string
}

func succeeded(format string, args ...any) Entry {
	return Entry{Level: LevelSuccess, Message: fmt.Sprintf(format, args...)}
}

func failed(err error) Entry {
	return Entry{Level: LevelError, Message: err.Error()}
}

func warned(err error) Entry {
	return Entry{Level: LevelWarning, Message: err.Error()}
}

func warnf(format string, args ...any) Entry {
	return Entry{Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}

// Report accumulates the outcome of an import run.
type Report struct {
	Success []string `json:"success"`
	Error   []string `json:"error"`
	Warning []string `json:"warning"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{Success: []string{}, Error: []string{}, Warning: []string{}}
}

// Add files entries into their buckets, keeping order.
func (r *Report) Add(entries ...Entry) {
	for _, e := range entries {
		switch e.Level {
		case LevelSuccess:
			r.Success = append(r.Success, e.Message)
		case LevelError:
			r.Error = append(r.Error, e.Message)
		case LevelWarning:
			r.Warning = append(r.Warning, e.Message)
		}
	}
}

// OK reports whether the run recorded no errors.
func (r *Report) OK() bool {
	return len(r.Error) == 0
}

// MarshalJSON encodes empty buckets as [] rather than null.
func (r Report) MarshalJSON() ([]byte, error) {
	type wire Report
	w := wire{Success: r.Success, Error: r.Error, Warning: r.Warning}
	if w.Success == nil {
		w.Success = []string{}
	}
	if w.Error == nil {
		w.Error = []string{}
	}
	if w.Warning == nil {
		w.Warning = []string{}
	}
	return json.Marshal(w)
}

// Text renders the report for terminals, one entry per line followed by
// a summary line.
func (r *Report) Text() string {
	var b strings.Builder
	for _, m := range r.Success {
		fmt.Fprintf(&b, "success: %s\n", m)
	}
	for _, m := range r.Error {
		fmt.Fprintf(&b, "error: %s\n", m)
	}
	for _, m := range r.Warning {
		fmt.Fprintf(&b, "warning: %s\n", m)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d succeeded, %d failed, %d warnings\n", len(r.Success), len(r.Error), len(r.Warning))
	return b.String()
}
