package fiscal_year

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(begin time.Time, days int) *FiscalYear {
	return &FiscalYear{BeginTime: begin, EndTime: begin.AddDate(0, 0, days)}
}

func TestFiscalYear_Validate(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fy      *FiscalYear
		wantErr bool
	}{
		{"calendar year", year(jan1, 365), false},
		{"minimum", year(jan1, 30), false},
		{"maximum", year(jan1, 400), false},
		{"too short", year(jan1, 29), true},
		{"too long", year(jan1, 401), true},
		{"reversed", &FiscalYear{BeginTime: jan1, EndTime: jan1.AddDate(0, 0, -40)}, true},
		{"empty", &FiscalYear{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFiscalYear_BlankNameIsDropped(t *testing.T) {
	name := "  "
	fy := year(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 365)
	fy.Name = &name
	require.NoError(t, fy.Validate())
	assert.Nil(t, fy.Name)
}

func TestFiscalYear_OverlapsIsHalfOpen(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &FiscalYear{BeginTime: jan1, EndTime: jan1.AddDate(1, 0, 0)}
	next := &FiscalYear{BeginTime: a.EndTime, EndTime: a.EndTime.AddDate(1, 0, 0)}
	inside := &FiscalYear{BeginTime: jan1.AddDate(0, 6, 0), EndTime: jan1.AddDate(1, 6, 0)}

	assert.False(t, a.Overlaps(next))
	assert.False(t, next.Overlaps(a))
	assert.True(t, a.Overlaps(inside))
	assert.True(t, inside.Overlaps(next))

	assert.True(t, a.Contains(jan1))
	assert.False(t, a.Contains(a.EndTime))
}
