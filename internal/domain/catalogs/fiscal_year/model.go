// Package fiscal_year provides non-overlapping accounting periods.
package fiscal_year

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
)

// Allowed fiscal year length.
const (
	MinDuration = 30 * 24 * time.Hour
	MaxDuration = 400 * 24 * time.Hour
)

// FiscalYear is the half-open period [BeginTime, EndTime).
type FiscalYear struct {
	ID        id.ID     `json:"id"`
	BeginTime time.Time `json:"beginTime"`
	EndTime   time.Time `json:"endTime"`
	Name      *string   `json:"name,omitempty"`
}

// Overlaps reports whether the two half-open periods intersect.
func (f *FiscalYear) Overlaps(o *FiscalYear) bool {
	return f.BeginTime.Before(o.EndTime) && o.BeginTime.Before(f.EndTime)
}

// Contains reports whether t falls in the period.
func (f *FiscalYear) Contains(t time.Time) bool {
	return !t.Before(f.BeginTime) && t.Before(f.EndTime)
}

// Validate checks ordering and duration bounds.
func (f *FiscalYear) Validate() error {
	f.BeginTime = types.TruncateMillis(f.BeginTime)
	f.EndTime = types.TruncateMillis(f.EndTime)
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if name == "" {
			f.Name = nil
		} else {
			f.Name = &name
		}
	}
	if f.BeginTime.IsZero() || f.EndTime.IsZero() {
		return apperror.NewValidation("begin and end time are required")
	}
	if !f.EndTime.After(f.BeginTime) {
		return apperror.NewValidation("end time must be after begin time").
			WithDetail("begin_time", f.BeginTime).
			WithDetail("end_time", f.EndTime)
	}
	d := f.EndTime.Sub(f.BeginTime)
	if d < MinDuration || d > MaxDuration {
		return apperror.NewValidation("fiscal year must last between 30 and 400 days").
			WithDetail("days", int(d.Hours()/24))
	}
	return nil
}
