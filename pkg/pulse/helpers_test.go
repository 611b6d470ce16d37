package pulse_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// captureSink records every operation it receives.
type captureSink struct {
	integration.Base
	key string

	mu         sync.Mutex
	ops        []string
	tracks     []*payload.Track
	identifies []*payload.Identify
	screens    []*payload.Screen
	groups     []*payload.Group
	aliases    []*payload.Alias
	appEvents  []integration.ApplicationEvent
	flushes    int
	resets     int
}

func newCaptureSink(key string) *captureSink {
	return &captureSink{key: key}
}

func (s *captureSink) Key() string { return s.key }

func (s *captureSink) record(op string) {
	s.ops = append(s.ops, op)
}

func (s *captureSink) Track(_ context.Context, p *payload.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpTrack)
	s.tracks = append(s.tracks, p)
	return nil
}

func (s *captureSink) Identify(_ context.Context, p *payload.Identify) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpIdentify)
	s.identifies = append(s.identifies, p)
	return nil
}

func (s *captureSink) Screen(_ context.Context, p *payload.Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpScreen)
	s.screens = append(s.screens, p)
	return nil
}

func (s *captureSink) Group(_ context.Context, p *payload.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpGroup)
	s.groups = append(s.groups, p)
	return nil
}

func (s *captureSink) Alias(_ context.Context, p *payload.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpAlias)
	s.aliases = append(s.aliases, p)
	return nil
}

func (s *captureSink) OnApplicationLifecycle(ev integration.ApplicationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpApplicationLifecycle)
	s.appEvents = append(s.appEvents, ev)
}

func (s *captureSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpFlush)
	s.flushes++
	return nil
}

func (s *captureSink) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(integration.OpReset)
	s.resets++
	return nil
}

func (s *captureSink) UnderlyingInstance() any { return s }

// Events returns the names of the tracked events in order.
func (s *captureSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tracks))
	for i, p := range s.tracks {
		out[i] = p.Event()
	}
	return out
}

// TrackNamed returns the tracked payloads for event.
func (s *captureSink) TrackNamed(event string) []*payload.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*payload.Track
	for _, p := range s.tracks {
		if p.Event() == event {
			out = append(out, p)
		}
	}
	return out
}

// Ops returns the operation names received, without the flushes added by
// waitIdle.
func (s *captureSink) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, op := range s.ops {
		if op != integration.OpFlush {
			out = append(out, op)
		}
	}
	return out
}

func (s *captureSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// panicSink panics on every track.
type panicSink struct {
	integration.Base
	key string
}

func (s *panicSink) Key() string { return s.key }

func (s *panicSink) Track(context.Context, *payload.Track) error {
	panic("sink exploded")
}

// newClient creates a client that is shut down when the test ends.
func newClient(t *testing.T, opts ...pulse.Option) *pulse.Client {
	t.Helper()
	c, err := pulse.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Shutdown(context.Background())
	})
	return c
}

// waitIdle blocks until everything submitted so far has been applied.
func waitIdle(t *testing.T, c *pulse.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.FlushAndWait(ctx))
}
