package hal

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Link defines the capability set of the 4-wire programming link. It
// abstracts away the real pins (GPIO on a Raspberry Pi, a simulated target
// in tests) from the protocol code.
type Link interface {
	// Init configures the pin directions: clock, data-out and reset as
	// outputs, data-in as input.
	Init() error

	ClockHigh()
	ClockLow()

	DataOutHigh()
	DataOutLow()

	// DataIn samples the data-in line, true meaning high.
	DataIn() bool

	ResetHigh()
	ResetLow()

	// DelayMicroseconds blocks for at least n microseconds.
	DelayMicroseconds(n uint32)
}

// Closer is implemented by links holding platform resources.
type Closer interface {
	Close() error
}

var ErrLinkClaimed = errors.New("link is already claimed by another session")

var (
	claimsMutex sync.Mutex
	claims      = make(map[Link]struct{})
)

// Claim registers exclusive use of link. It fails with ErrLinkClaimed while
// another holder has not released it.
func Claim(link Link) error {
	if link == nil {
		return errors.New("link cannot be nil")
	}
	if !reflect.TypeOf(link).Comparable() {
		return fmt.Errorf("link of type %T cannot be claimed, use a pointer", link)
	}
	claimsMutex.Lock()
	defer claimsMutex.Unlock()
	if _, found := claims[link]; found {
		return ErrLinkClaimed
	}
	claims[link] = struct{}{}
	return nil
}

// Release gives up a claim taken with Claim. Releasing an unclaimed link is
// a no-op.
func Release(link Link) {
	if link == nil || !reflect.TypeOf(link).Comparable() {
		return
	}
	claimsMutex.Lock()
	delete(claims, link)
	claimsMutex.Unlock()
}

// spinThreshold is the delay below which time.Sleep is too coarse and we
// busy-wait on the monotonic clock instead.
const spinThreshold = time.Millisecond

// Delay blocks for at least n microseconds.
func Delay(n uint32) {
	d := time.Duration(n) * time.Microsecond
	if d >= spinThreshold {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
