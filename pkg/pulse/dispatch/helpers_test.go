package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// recordingSink records every track event it receives.
type recordingSink struct {
	integration.Base
	key string

	mu     sync.Mutex
	events []string
	flushs int
}

func newRecordingSink(key string) *recordingSink {
	return &recordingSink{key: key}
}

func (s *recordingSink) Key() string { return s.key }

func (s *recordingSink) Track(_ context.Context, p *payload.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, p.Event())
	return nil
}

func (s *recordingSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushs++
	return nil
}

func (s *recordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

// faultySink fails every track, either by error or by panic. After heal is
// set it succeeds.
type faultySink struct {
	integration.Base
	key     string
	panics  bool
	healed  atomic.Bool
	attempt atomic.Int32
}

func (s *faultySink) Key() string { return s.key }

func (s *faultySink) Track(context.Context, *payload.Track) error {
	s.attempt.Add(1)
	if s.healed.Load() {
		return nil
	}
	if s.panics {
		panic("sink exploded")
	}
	return errors.New("backend unavailable")
}

// blockingSink blocks in Track until released or its context ends.
type blockingSink struct {
	integration.Base
	entered chan struct{}
	release chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *blockingSink) Key() string { return "Blocking" }

func (s *blockingSink) Track(ctx context.Context, _ *payload.Track) error {
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stubbornSink blocks in Track until released, ignoring cancellation.
type stubbornSink struct {
	integration.Base
	entered chan struct{}
	release chan struct{}
}

func (s *stubbornSink) Key() string { return "Stubborn" }

func (s *stubbornSink) Track(context.Context, *payload.Track) error {
	s.entered <- struct{}{}
	<-s.release
	return nil
}

func trackOp(event string) integration.Operation {
	p, err := payload.NewTrack(payload.Identity{AnonymousID: "anon"}, event, nil, nil)
	if err != nil {
		panic(err)
	}
	return integration.Track{P: p}
}
