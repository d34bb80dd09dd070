package timing

import (
	"fmt"
	"time"
)

// Latencies is a caller-owned buffer of durations in seconds. It is not safe
// for concurrent appends.
type Latencies []float64

// Seconds returns the samples as a plain slice.
func (l Latencies) Seconds() []float64 { return []float64(l) }

var now = time.Now

// TrackInferTime runs fn exactly once and appends its wall-clock duration in
// seconds to buf. The sample is recorded even when fn returns an error or
// panics; the error (or panic) is passed through unchanged.
func TrackInferTime(buf *Latencies, fn func() error) error {
	if buf == nil {
		return fmt.Errorf("track infer time: nil buffer: %w", ErrInvalidArgument)
	}
	if fn == nil {
		return fmt.Errorf("track infer time: nil func: %w", ErrInvalidArgument)
	}

	start := now()
	defer func() {
		*buf = append(*buf, now().Sub(start).Seconds())
	}()
	return fn()
}

// Start begins a measurement and returns the function that ends it:
//
//	defer timing.Start(&buf)()
//
// The returned function appends one sample; further calls are no-ops.
// A nil buf panics with an error wrapping ErrInvalidArgument, since Start
// has no error return.
func Start(buf *Latencies) (stop func()) {
	if buf == nil {
		panic(fmt.Errorf("timing start: nil buffer: %w", ErrInvalidArgument))
	}
	start := now()
	done := false
	return func() {
		if done {
			return
		}
		done = true
		*buf = append(*buf, now().Sub(start).Seconds())
	}
}
