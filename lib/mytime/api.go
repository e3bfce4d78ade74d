package mytime

import "time"

var (
	ExampleTime time.Time
)

func init() {
	ExampleTime, _ = time.Parse("2006-01-02T15:04:05Z", "2023-02-27T23:58:59Z")
}

//go:generate mockgen -source=api.go -package mytime -destination mytime_mock.go Nower,Scheduler
type Nower interface {
	Now() time.Time
}

type RealNower struct{}

func (n RealNower) Now() time.Time {
	return time.Now()
}

// Scheduler fires a callback once after a delay. The returned func cancels the timer.
type Scheduler interface {
	AfterFunc(delay time.Duration, f func()) (cancel func())
}

type RealScheduler struct{}

func (s RealScheduler) AfterFunc(delay time.Duration, f func()) func() {
	timer := time.AfterFunc(delay, f)
	return func() {
		timer.Stop()
	}
}
