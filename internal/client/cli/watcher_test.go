package cli

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type flakyPinger struct {
	mu   sync.Mutex
	errs []error
	n    atomic.Int32
}

func (p *flakyPinger) Ping(context.Context) error {
	p.n.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func TestWatcher_CheckReportsTransitions(t *testing.T) {
	p := &flakyPinger{errs: []error{errors.New("down"), errors.New("down"), nil, nil}}

	type change struct{ from, to Mode }
	var changes []change
	w := NewWatcher(p, time.Hour, func(from, to Mode) { changes = append(changes, change{from, to}) })

	assert.Equal(t, ModeUnknown, w.Mode())
	assert.Equal(t, ModeOffline, w.Check(context.Background()))
	assert.Equal(t, ModeOffline, w.Check(context.Background()))
	assert.Equal(t, ModeOnline, w.Check(context.Background()))
	assert.Equal(t, ModeOnline, w.Check(context.Background()))

	assert.Equal(t, []change{{ModeUnknown, ModeOffline}, {ModeOffline, ModeOnline}}, changes)
	assert.Equal(t, ModeOnline, w.Mode())
}

func TestWatcher_RunTicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &flakyPinger{}
	w := NewWatcher(p, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return p.n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, ModeOnline, w.Mode())
}
