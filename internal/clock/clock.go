// Package clock abstracts the time source so deadline logic can be tested
// without sleeping.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now.
type System struct{}

func (System) Now() time.Time { return time.Now() }
