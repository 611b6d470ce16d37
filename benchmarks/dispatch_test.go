package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/dispatch"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// noopSink accepts every operation.
type noopSink struct {
	integration.Base
	key string
}

func (s noopSink) Key() string { return s.key }

func sinks(n int) []integration.Integration {
	out := make([]integration.Integration, n)
	for i := range out {
		out[i] = noopSink{key: fmt.Sprintf("sink-%d", i)}
	}
	return out
}

func trackOp(b *testing.B) integration.Operation {
	b.Helper()
	p, err := payload.NewTrack(payload.Identity{AnonymousID: "a1"}, "Clicked",
		payload.NewValueMap().Put("button", "buy"), nil)
	if err != nil {
		b.Fatal(err)
	}
	return integration.Track{P: p}
}

func benchmarkDispatch(b *testing.B, n int) {
	d := dispatch.New(sinks(n), dispatch.Config{Logger: quiet})
	defer d.Close(context.Background())
	op := trackOp(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = d.Submit(op)
	}
	_ = d.Barrier(context.Background())
}

// BenchmarkDispatch_1 fans out to one integration.
func BenchmarkDispatch_1(b *testing.B) { benchmarkDispatch(b, 1) }

// BenchmarkDispatch_5 fans out to five integrations.
func BenchmarkDispatch_5(b *testing.B) { benchmarkDispatch(b, 5) }

// BenchmarkDispatch_20 fans out to twenty integrations.
func BenchmarkDispatch_20(b *testing.B) { benchmarkDispatch(b, 20) }

// BenchmarkDispatch_Parallel submits from many goroutines.
func BenchmarkDispatch_Parallel(b *testing.B) {
	d := dispatch.New(sinks(5), dispatch.Config{Logger: quiet})
	defer d.Close(context.Background())
	op := trackOp(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = d.Submit(op)
		}
	})
	_ = d.Barrier(context.Background())
}

// BenchmarkClient_Track measures the full emission path.
func BenchmarkClient_Track(b *testing.B) {
	c, err := pulse.New(pulse.WithLogger(quiet), pulse.WithIntegrations(sinks(3)...))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Shutdown(context.Background())
	props := payload.NewValueMap().Put("button", "buy").Put("price", 9.99)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Track("Clicked", props, nil)
	}
	_ = c.FlushAndWait(context.Background())
}
