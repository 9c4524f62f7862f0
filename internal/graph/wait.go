package graph

import (
	"runtime"
	"time"
)

const (
	// spinRounds is how many times a waiter yields before it starts sleeping.
	spinRounds = 16

	// maxSleep caps the sleep between two polls.
	maxSleep = time.Millisecond
)

// backoff paces a poll loop: a few scheduler yields first, then sleeps that
// double up to maxSleep. The zero value is ready to use.
type backoff struct {
	rounds int
	sleep  time.Duration
}

func (b *backoff) wait() {
	if b.rounds < spinRounds {
		b.rounds++
		runtime.Gosched()
		return
	}
	if b.sleep == 0 {
		b.sleep = time.Microsecond
	} else if b.sleep < maxSleep {
		b.sleep *= 2
		if b.sleep > maxSleep {
			b.sleep = maxSleep
		}
	}
	time.Sleep(b.sleep)
}

// reset starts the schedule over after progress was made.
func (b *backoff) reset() {
	b.rounds = 0
	b.sleep = 0
}
