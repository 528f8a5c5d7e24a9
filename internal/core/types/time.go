package types

import "time"

// ToMillis converts t to epoch milliseconds, the storage time format.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToMillisPtr is ToMillis for nullable columns.
func ToMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

// FromMillisPtr is FromMillis for nullable columns.
func FromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := FromMillis(*ms)
	return &t
}

// TruncateMillis drops precision below storage resolution.
func TruncateMillis(t time.Time) time.Time {
	return t.Truncate(time.Millisecond).UTC()
}
