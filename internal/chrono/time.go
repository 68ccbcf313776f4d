package chrono

import (
	"time"
)

var madrid *time.Location

func init() {
	var err error
	madrid, err = time.LoadLocation("Europe/Madrid")
	if err != nil {
		panic(err)
	}
}

// Madrid returns a [*time.Location] for Europe/Madrid, the timezone the scraped site
// renders its calendars and times in.
func Madrid() *time.Location {
	return madrid
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time, the timezone of the time will default to Europe/Madrid.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(madrid)
}

// FixedTime always returns the same instant.
type FixedTime struct {
	T time.Time
}

func (f FixedTime) Now() time.Time {
	return f.T
}
