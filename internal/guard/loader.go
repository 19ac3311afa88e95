package guard

import "time"

// Loader delays showing a loading indicator until loading has lasted for
// the grace period, so fast resolutions never flash a spinner. It is not
// safe for concurrent use on its own.
type Loader struct {
	grace   time.Duration
	now     func() time.Time
	started time.Time
}

func NewLoader(grace time.Duration, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	if grace < 0 {
		grace = 0
	}
	return &Loader{grace: grace, now: now}
}

// Begin marks loading as started. Repeated calls keep the first start.
func (l *Loader) Begin() {
	if l.started.IsZero() {
		l.started = l.now()
	}
}

func (l *Loader) End() {
	l.started = time.Time{}
}

func (l *Loader) Loading() bool {
	return !l.started.IsZero()
}

// Visible reports whether loading has lasted at least the grace period.
func (l *Loader) Visible() bool {
	if !l.Loading() {
		return false
	}
	return l.now().Sub(l.started) >= l.grace
}
