package cache

import "time"

// Clock abstracts time so TTL expiry is testable under a simulated clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock used outside tests.
func SystemClock() Clock { return systemClock{} }
