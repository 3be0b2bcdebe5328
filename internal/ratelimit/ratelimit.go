// Package ratelimit throttles data connection throughput with a token
// bucket. A nil *Limiter means "unlimited" everywhere in this package.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// Limiter is a token bucket measured in bytes. The bucket holds at most one
// second worth of tokens and may go into debt: a caller that consumed more
// than was available sleeps until the debt is repaid.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // bytes per second
	burst  float64
	tokens float64
	last   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a Limiter for bytesPerSecond, or nil when bytesPerSecond is
// not positive.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	rate := float64(bytesPerSecond)
	return &Limiter{
		rate:   rate,
		burst:  rate,
		tokens: rate,
		last:   time.Now(),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Rate returns the configured rate in bytes per second, or 0 for a nil Limiter.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.rate)
}

// Wait charges n bytes to the bucket and blocks while the bucket is in debt.
func (l *Limiter) Wait(n int) {
	if l == nil || n <= 0 {
		return
	}

	l.mu.Lock()
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
	l.tokens -= float64(n)

	var wait time.Duration
	if l.tokens < 0 {
		wait = time.Duration(-l.tokens / l.rate * float64(time.Second))
	}
	l.mu.Unlock()

	if wait > 0 {
		l.sleep(wait)
	}
}

// chunk is the largest single read or write let through at once: a tenth
// of a second of traffic, kept between 512 bytes and 64 KiB.
func (l *Limiter) chunk() int {
	c := int(l.rate / 10)
	return min(max(c, 512), 64*1024)
}

type reader struct {
	r       io.Reader
	limiter *Limiter
}

// NewReader returns r throttled by limiter. Bytes are charged after they
// are read, so a read never blocks on tokens for data that did not arrive.
// If limiter is nil, r is returned unchanged.
func NewReader(r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{r: r, limiter: limiter}
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) > r.limiter.chunk() {
		p = p[:r.limiter.chunk()]
	}
	n, err := r.r.Read(p)
	r.limiter.Wait(n)
	return n, err
}

type writer struct {
	w       io.Writer
	limiter *Limiter
}

// NewWriter returns w throttled by limiter. Large writes are split into
// chunks that are each charged before being written.
// If limiter is nil, w is returned unchanged.
func NewWriter(w io.Writer, limiter *Limiter) io.Writer {
	if limiter == nil {
		return w
	}
	return &writer{w: w, limiter: limiter}
}

func (w *writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		size := min(len(p)-written, w.limiter.chunk())
		w.limiter.Wait(size)

		n, err := w.w.Write(p[written : written+size])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
