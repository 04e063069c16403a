package article

import (
	"strconv"
	"time"
)

const msPerDay = 60 * 60 * 24 * 1000

// Days is a whole-day count that may be undefined, which happens when the
// publication date is missing or unparsable. An undefined count prints as NaN.
type Days struct {
	n     int64
	valid bool
}

// DaysSince returns the whole days elapsed from published to now, truncated
// toward zero. Future dates give negative counts.
func DaysSince(now, published time.Time) Days {
	ms := now.UnixMilli() - published.UnixMilli()
	return Days{n: ms / msPerDay, valid: true}
}

// Int returns the count and whether it is defined.
func (d Days) Int() (int64, bool) { return d.n, d.valid }

// Valid reports whether the count is defined.
func (d Days) Valid() bool { return d.valid }

func (d Days) String() string {
	if !d.valid {
		return "NaN"
	}
	return strconv.FormatInt(d.n, 10)
}

// MarshalJSON writes the count, or null when undefined.
func (d Days) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(d.n, 10)), nil
}
