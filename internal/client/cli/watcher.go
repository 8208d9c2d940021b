package cli

import (
	"context"
	"sync"
	"time"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger is the liveness probe used by Watcher.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher pings the server on a fixed interval and reports transitions
// between online and offline.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	onChange func(from, to Mode)

	mu   sync.RWMutex
	mode Mode
}

func NewWatcher(p Pinger, interval time.Duration, onChange func(from, to Mode)) *Watcher {
	if onChange == nil {
		onChange = func(Mode, Mode) {}
	}
	return &Watcher{pinger: p, interval: interval, timeout: 3 * time.Second, onChange: onChange}
}

func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

// Check pings once and updates the mode.
func (w *Watcher) Check(ctx context.Context) Mode {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pctx)
	cancel()

	next := ModeOnline
	if err != nil {
		next = ModeOffline
	}

	w.mu.Lock()
	prev := w.mode
	w.mode = next
	w.mu.Unlock()

	if prev != next {
		w.onChange(prev, next)
	}
	return next
}

// Run checks immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
