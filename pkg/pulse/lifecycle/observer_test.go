package lifecycle_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/lifecycle"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

type tracked struct {
	event string
	props *payload.Properties
}

// recorder is a Dispatcher that records every call.
type recorder struct {
	mu         sync.Mutex
	ops        []string
	tracks     []tracked
	screens    []string
	lifecycles int
}

func (r *recorder) Submit(op integration.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op.Name())
	return nil
}

func (r *recorder) Track(event string, props *payload.Properties, _ *payload.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = append(r.tracks, tracked{event: event, props: props.Clone()})
	return nil
}

func (r *recorder) Screen(name, _ string, _ *payload.Properties, _ *payload.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = append(r.screens, name)
	return nil
}

func (r *recorder) ApplicationLifecycle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycles++
	return nil
}

func (r *recorder) events(name string) []tracked {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tracked
	for _, t := range r.tracks {
		if t.event == name {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) opNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

var app = host.AppInfo{Version: "1.4.0", Build: 140}

func newObserver(t *testing.T, cfg lifecycle.Config) (*lifecycle.Observer, *recorder) {
	t.Helper()
	rec := &recorder{}
	return lifecycle.New(rec, cfg), rec
}

func trackingConfig() lifecycle.Config {
	return lifecycle.Config{TrackApplicationLifecycleEvents: true, App: app}
}

func screens(n int) []host.Screen {
	out := make([]host.Screen, n)
	for i := range out {
		out[i] = host.NewScreen(fmt.Sprintf("screen-%d", i), fmt.Sprintf("Screen %d", i), "")
	}
	return out
}

func runConcurrently(items []host.Screen, fn func(host.Screen)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, s := range items {
		wg.Add(1)
		go func(s host.Screen) {
			defer wg.Done()
			<-start
			fn(s)
		}(s)
	}
	close(start)
	wg.Wait()
}

func TestObserver_ConcurrentStartsOpenOnce(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())
	o.ProcessCreated()

	all := screens(64)
	runConcurrently(all, o.ScreenStarted)

	opened := rec.events(lifecycle.EventApplicationOpened)
	require.Len(t, opened, 1)
	props := opened[0].props
	assert.False(t, props.Bool(lifecycle.PropertyFromBackground, true))
	assert.Equal(t, "1.4.0", props.String(payload.PropertyVersion, ""))
	assert.Equal(t, "140", props.String(payload.PropertyBuild, ""))
	assert.Equal(t, 64, o.ActiveScreens())

	runConcurrently(all, o.ScreenStopped)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)
	assert.Equal(t, 0, o.ActiveScreens())

	o.ScreenStarted(all[0])
	opened = rec.events(lifecycle.EventApplicationOpened)
	require.Len(t, opened, 2)
	props = opened[1].props
	assert.True(t, props.Bool(lifecycle.PropertyFromBackground, false))
	assert.False(t, props.Has(payload.PropertyVersion))
	assert.False(t, props.Has(payload.PropertyBuild))
}

func TestObserver_BalancedCounting(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())
	o.ProcessCreated()

	a, b := host.NewScreen("a", "A", ""), host.NewScreen("b", "B", "")
	o.ScreenStarted(a)
	o.ScreenStarted(b)
	o.ScreenStopped(a)
	assert.Empty(t, rec.events(lifecycle.EventApplicationBackgrounded))
	o.ScreenStopped(b)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)

	// A stop for a screen that is not started has no effect.
	o.ScreenStopped(b)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)
	assert.Equal(t, 0, o.ActiveScreens())
}

func TestObserver_RepeatedStartCountsOnce(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())
	o.ProcessCreated()

	a := host.NewScreen("a", "A", "")
	o.ScreenStarted(a)
	o.ScreenStarted(a)
	assert.Equal(t, 1, o.ActiveScreens())

	o.ScreenStopped(a)
	assert.Equal(t, 0, o.ActiveScreens())
	assert.Len(t, rec.events(lifecycle.EventApplicationOpened), 1)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)
}

func TestObserver_DestroyWithoutStop(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())
	o.ProcessCreated()

	a := host.NewScreen("a", "A", "")
	o.ScreenStarted(a)
	o.ScreenDestroyed(a)
	assert.Equal(t, 0, o.ActiveScreens())
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)

	// Stopped then destroyed releases the count only once.
	o.ScreenStarted(a)
	o.ScreenStopped(a)
	o.ScreenDestroyed(a)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 2)
}

func TestObserver_ProcessCreatedOnce(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())

	runConcurrently(screens(16), func(host.Screen) { o.ProcessCreated() })
	assert.Equal(t, 1, rec.lifecycles)
}

func TestObserver_TrackingDisabled(t *testing.T) {
	o, rec := newObserver(t, lifecycle.Config{App: app})
	o.ProcessCreated()

	a := host.NewScreen("a", "A", "")
	o.ScreenStarted(a)
	assert.Equal(t, 1, o.ActiveScreens())
	o.ScreenStopped(a)

	assert.Zero(t, rec.lifecycles)
	assert.Empty(t, rec.tracks)
	assert.Equal(t, []string{integration.OpScreenStarted, integration.OpScreenStopped}, rec.opNames())
}

func TestObserver_FirstLaunchRequiresProcessCreated(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())

	o.ScreenStarted(host.NewScreen("a", "A", ""))
	opened := rec.events(lifecycle.EventApplicationOpened)
	require.Len(t, opened, 1)
	assert.True(t, opened[0].props.Bool(lifecycle.PropertyFromBackground, false))
	assert.False(t, opened[0].props.Has(payload.PropertyVersion))
}

func TestObserver_RecordScreenViews(t *testing.T) {
	o, rec := newObserver(t, lifecycle.Config{RecordScreenViews: true})

	o.ScreenStarted(host.NewScreen("a", "Checkout", ""))
	o.ScreenStarted(host.NewScreen("b", "Cart", ""))
	assert.Equal(t, []string{"Checkout", "Cart"}, rec.screens)
}

func TestObserver_ForwardsEveryCallback(t *testing.T) {
	o, rec := newObserver(t, lifecycle.Config{})
	s := host.NewScreen("a", "A", "")
	state := payload.NewValueMap().Put("scroll", 10)

	o.ScreenCreated(s, state)
	o.ScreenStarted(s)
	o.ScreenResumed(s)
	o.ScreenPaused(s)
	o.ScreenSaveState(s, state)
	o.ScreenStopped(s)
	o.ScreenDestroyed(s)

	assert.Equal(t, []string{
		integration.OpScreenCreated,
		integration.OpScreenStarted,
		integration.OpScreenResumed,
		integration.OpScreenPaused,
		integration.OpScreenSaveState,
		integration.OpScreenStopped,
		integration.OpScreenDestroyed,
	}, rec.opNames())
}

func TestObserver_DeepLink(t *testing.T) {
	o, rec := newObserver(t, lifecycle.Config{TrackDeepLinks: true})

	uri := "myapp://open?ref=abc&empty=&utm=x"
	o.ScreenCreated(host.NewScreen("a", "A", uri), nil)

	links := rec.events(lifecycle.EventDeepLinkOpened)
	require.Len(t, links, 1)
	props := links[0].props
	assert.Equal(t, []string{"ref", "utm", payload.PropertyURL}, props.Keys())
	assert.Equal(t, "abc", props.String("ref", ""))
	assert.Equal(t, "x", props.String("utm", ""))
	assert.Equal(t, uri, props.String(payload.PropertyURL, ""))
}

func TestObserver_DeepLinkSkipped(t *testing.T) {
	tests := []struct {
		name string
		cfg  lifecycle.Config
		uri  string
	}{
		{name: "no uri", cfg: lifecycle.Config{TrackDeepLinks: true}, uri: ""},
		{name: "unparsable", cfg: lifecycle.Config{TrackDeepLinks: true}, uri: "%zz"},
		{name: "disabled", cfg: lifecycle.Config{}, uri: "myapp://open?ref=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, rec := newObserver(t, tt.cfg)
			o.ScreenCreated(host.NewScreen("a", "A", tt.uri), nil)
			assert.Empty(t, rec.events(lifecycle.EventDeepLinkOpened))
			assert.Equal(t, []string{integration.OpScreenCreated}, rec.opNames())
		})
	}
}

func TestDeepLinkProperties(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want map[string]any
		keys []string
	}{
		{
			name: "no query",
			uri:  "myapp://home",
			want: map[string]any{"url": "myapp://home"},
			keys: []string{"url"},
		},
		{
			name: "trimmed and decoded",
			uri:  "https://example.com/p?q=%20hello%20world%20&x+y=1",
			want: map[string]any{"q": "hello world", "x y": "1", "url": "https://example.com/p?q=%20hello%20world%20&x+y=1"},
			keys: []string{"q", "x y", "url"},
		},
		{
			name: "first value wins",
			uri:  "myapp://open?a=1&a=2&b",
			want: map[string]any{"a": "1", "url": "myapp://open?a=1&a=2&b"},
			keys: []string{"a", "url"},
		},
		{
			name: "blank values dropped",
			uri:  "myapp://open?a=%20%20&b=2",
			want: map[string]any{"b": "2", "url": "myapp://open?a=%20%20&b=2"},
			keys: []string{"b", "url"},
		},
		{
			name: "blank first value is not replaced by a later one",
			uri:  "myapp://open?a=&a=x&ref=abc",
			want: map[string]any{"ref": "abc", "url": "myapp://open?a=&a=x&ref=abc"},
			keys: []string{"ref", "url"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := lifecycle.DeepLinkProperties(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, props.Map())
			assert.Equal(t, tt.keys, props.Keys())
		})
	}
}

func TestDeepLinkProperties_Invalid(t *testing.T) {
	_, err := lifecycle.DeepLinkProperties("%zz")
	assert.Error(t, err)
}

func TestObserver_WithHostEmitter(t *testing.T) {
	o, rec := newObserver(t, trackingConfig())
	em := host.NewEmitter()
	unregister := em.Register(o)

	s := host.NewScreen("a", "A", "")
	em.ProcessCreated()
	em.ScreenStarted(s)
	em.ScreenStopped(s)
	unregister()
	em.ScreenStarted(s)

	assert.Equal(t, 1, rec.lifecycles)
	assert.Len(t, rec.events(lifecycle.EventApplicationOpened), 1)
	assert.Len(t, rec.events(lifecycle.EventApplicationBackgrounded), 1)
}
