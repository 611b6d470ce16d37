// Package integration defines the capability set every pulse sink
// implements, the operations the dispatcher applies to sinks, and the rules
// that decide whether a payload reaches a given sink.
//
// Adapters embed Base and override only the hooks they care about:
//
//	type Sink struct {
//	    integration.Base
//	}
//
//	func (s *Sink) Key() string { return "Sink" }
//
//	func (s *Sink) Track(ctx context.Context, p *payload.Track) error {
//	    return s.client.Send(ctx, p.Event())
//	}
package integration

import (
	"context"

	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

//go:generate mockgen -source=integration.go -destination=integrationmock/integration.go -package=integrationmock

// Integration is a pluggable analytics sink.
//
// Hooks are always called from the single dispatch worker, one at a time and
// in submission order. An error or panic from a hook is isolated: it is
// logged and the remaining integrations still run.
type Integration interface {
	// Key uniquely identifies the integration.
	Key() string

	OnScreenCreated(s host.Screen, savedState *payload.ValueMap)
	OnScreenStarted(s host.Screen)
	OnScreenResumed(s host.Screen)
	OnScreenPaused(s host.Screen)
	OnScreenStopped(s host.Screen)
	OnScreenSaveState(s host.Screen, outState *payload.ValueMap)
	OnScreenDestroyed(s host.Screen)

	// OnApplicationLifecycle receives the install, update or launch
	// notification produced once per process.
	OnApplicationLifecycle(ev ApplicationEvent)

	Identify(ctx context.Context, p *payload.Identify) error
	Group(ctx context.Context, p *payload.Group) error
	Track(ctx context.Context, p *payload.Track) error
	Alias(ctx context.Context, p *payload.Alias) error
	Screen(ctx context.Context, p *payload.Screen) error

	// Flush sends any buffered data.
	Flush(ctx context.Context) error

	// Reset clears any locally cached identity.
	Reset(ctx context.Context) error

	// UnderlyingInstance returns the vendor client, or nil.
	UnderlyingInstance() any
}

// Base implements every Integration hook except Key as a no-op.
type Base struct{}

func (Base) OnScreenCreated(host.Screen, *payload.ValueMap)   {}
func (Base) OnScreenStarted(host.Screen)                      {}
func (Base) OnScreenResumed(host.Screen)                      {}
func (Base) OnScreenPaused(host.Screen)                       {}
func (Base) OnScreenStopped(host.Screen)                      {}
func (Base) OnScreenSaveState(host.Screen, *payload.ValueMap) {}
func (Base) OnScreenDestroyed(host.Screen)                    {}
func (Base) OnApplicationLifecycle(ApplicationEvent)          {}

func (Base) Identify(context.Context, *payload.Identify) error { return nil }
func (Base) Group(context.Context, *payload.Group) error       { return nil }
func (Base) Track(context.Context, *payload.Track) error       { return nil }
func (Base) Alias(context.Context, *payload.Alias) error       { return nil }
func (Base) Screen(context.Context, *payload.Screen) error     { return nil }
func (Base) Flush(context.Context) error                       { return nil }
func (Base) Reset(context.Context) error                       { return nil }
func (Base) UnderlyingInstance() any                           { return nil }

// ApplicationEventKind classifies an ApplicationEvent.
type ApplicationEventKind int

const (
	// ApplicationLaunched means the same build ran before.
	ApplicationLaunched ApplicationEventKind = iota

	// ApplicationInstalled means no previous build was recorded.
	ApplicationInstalled

	// ApplicationUpdated means the recorded build differs from the current one.
	ApplicationUpdated
)

// String returns the kind name.
func (k ApplicationEventKind) String() string {
	switch k {
	case ApplicationInstalled:
		return "installed"
	case ApplicationUpdated:
		return "updated"
	default:
		return "launched"
	}
}

// ApplicationEvent describes the process start relative to the previous run.
type ApplicationEvent struct {
	Kind ApplicationEventKind
	App  host.AppInfo

	// Previous is the recorded app info. Zero for ApplicationInstalled.
	Previous host.AppInfo
}

// Classify compares the recorded app info with the current one.
func Classify(previous, current host.AppInfo) ApplicationEvent {
	ev := ApplicationEvent{Kind: ApplicationLaunched, App: current, Previous: previous}
	switch {
	case previous.IsZero():
		ev.Kind = ApplicationInstalled
	case previous.Build != current.Build:
		ev.Kind = ApplicationUpdated
	}
	return ev
}
