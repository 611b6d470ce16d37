package integration

import (
	"context"

	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Operation is one unit of dispatch work: a hook plus its captured
// arguments. The variants in this file are the complete set.
type Operation interface {
	// Name identifies the hook in logs and metrics.
	Name() string

	// Apply invokes the hook on in.
	Apply(ctx context.Context, in Integration) error

	operation()
}

// PayloadOperation is implemented by operations that carry a payload.
type PayloadOperation interface {
	Operation
	Payload() payload.Payload
}

// Operation names.
const (
	OpScreenCreated        = "screen_created"
	OpScreenStarted        = "screen_started"
	OpScreenResumed        = "screen_resumed"
	OpScreenPaused         = "screen_paused"
	OpScreenStopped        = "screen_stopped"
	OpScreenSaveState      = "screen_save_state"
	OpScreenDestroyed      = "screen_destroyed"
	OpApplicationLifecycle = "application_lifecycle"
	OpIdentify             = "identify"
	OpTrack                = "track"
	OpScreen               = "screen"
	OpGroup                = "group"
	OpAlias                = "alias"
	OpFlush                = "flush"
	OpReset                = "reset"
)

type sealed struct{}

func (sealed) operation() {}

// ScreenCreated forwards a screen creation.
type ScreenCreated struct {
	sealed
	Screen     host.Screen
	SavedState *payload.ValueMap
}

func (ScreenCreated) Name() string { return OpScreenCreated }

func (o ScreenCreated) Apply(_ context.Context, in Integration) error {
	in.OnScreenCreated(o.Screen, o.SavedState.Clone())
	return nil
}

// ScreenStarted forwards a screen start.
type ScreenStarted struct {
	sealed
	Screen host.Screen
}

func (ScreenStarted) Name() string { return OpScreenStarted }

func (o ScreenStarted) Apply(_ context.Context, in Integration) error {
	in.OnScreenStarted(o.Screen)
	return nil
}

// ScreenResumed forwards a screen resume.
type ScreenResumed struct {
	sealed
	Screen host.Screen
}

func (ScreenResumed) Name() string { return OpScreenResumed }

func (o ScreenResumed) Apply(_ context.Context, in Integration) error {
	in.OnScreenResumed(o.Screen)
	return nil
}

// ScreenPaused forwards a screen pause.
type ScreenPaused struct {
	sealed
	Screen host.Screen
}

func (ScreenPaused) Name() string { return OpScreenPaused }

func (o ScreenPaused) Apply(_ context.Context, in Integration) error {
	in.OnScreenPaused(o.Screen)
	return nil
}

// ScreenStopped forwards a screen stop.
type ScreenStopped struct {
	sealed
	Screen host.Screen
}

func (ScreenStopped) Name() string { return OpScreenStopped }

func (o ScreenStopped) Apply(_ context.Context, in Integration) error {
	in.OnScreenStopped(o.Screen)
	return nil
}

// ScreenSaveState forwards a state save. Each integration receives its own
// copy of OutState.
type ScreenSaveState struct {
	sealed
	Screen   host.Screen
	OutState *payload.ValueMap
}

func (ScreenSaveState) Name() string { return OpScreenSaveState }

func (o ScreenSaveState) Apply(_ context.Context, in Integration) error {
	in.OnScreenSaveState(o.Screen, o.OutState.Clone())
	return nil
}

// ScreenDestroyed forwards a screen teardown.
type ScreenDestroyed struct {
	sealed
	Screen host.Screen
}

func (ScreenDestroyed) Name() string { return OpScreenDestroyed }

func (o ScreenDestroyed) Apply(_ context.Context, in Integration) error {
	in.OnScreenDestroyed(o.Screen)
	return nil
}

// ApplicationLifecycle forwards the install, update or launch notification.
type ApplicationLifecycle struct {
	sealed
	Event ApplicationEvent
}

func (ApplicationLifecycle) Name() string { return OpApplicationLifecycle }

func (o ApplicationLifecycle) Apply(_ context.Context, in Integration) error {
	in.OnApplicationLifecycle(o.Event)
	return nil
}

// Identify delivers an Identify payload.
type Identify struct {
	sealed
	P *payload.Identify
}

func (Identify) Name() string               { return OpIdentify }
func (o Identify) Payload() payload.Payload { return o.P }

func (o Identify) Apply(ctx context.Context, in Integration) error {
	return in.Identify(ctx, o.P)
}

// Track delivers a Track payload.
type Track struct {
	sealed
	P *payload.Track
}

func (Track) Name() string               { return OpTrack }
func (o Track) Payload() payload.Payload { return o.P }

func (o Track) Apply(ctx context.Context, in Integration) error {
	return in.Track(ctx, o.P)
}

// ScreenView delivers a Screen payload.
type ScreenView struct {
	sealed
	P *payload.Screen
}

func (ScreenView) Name() string               { return OpScreen }
func (o ScreenView) Payload() payload.Payload { return o.P }

func (o ScreenView) Apply(ctx context.Context, in Integration) error {
	return in.Screen(ctx, o.P)
}

// Group delivers a Group payload.
type Group struct {
	sealed
	P *payload.Group
}

func (Group) Name() string               { return OpGroup }
func (o Group) Payload() payload.Payload { return o.P }

func (o Group) Apply(ctx context.Context, in Integration) error {
	return in.Group(ctx, o.P)
}

// Alias delivers an Alias payload.
type Alias struct {
	sealed
	P *payload.Alias
}

func (Alias) Name() string               { return OpAlias }
func (o Alias) Payload() payload.Payload { return o.P }

func (o Alias) Apply(ctx context.Context, in Integration) error {
	return in.Alias(ctx, o.P)
}

// Flush asks every integration to send buffered data.
type Flush struct{ sealed }

func (Flush) Name() string { return OpFlush }

func (Flush) Apply(ctx context.Context, in Integration) error {
	return in.Flush(ctx)
}

// Reset asks every integration to clear cached identity.
type Reset struct{ sealed }

func (Reset) Name() string { return OpReset }

func (Reset) Apply(ctx context.Context, in Integration) error {
	return in.Reset(ctx)
}

// ForPayload wraps p in its delivery operation.
func ForPayload(p payload.Payload) PayloadOperation {
	switch v := p.(type) {
	case *payload.Identify:
		return Identify{P: v}
	case *payload.Track:
		return Track{P: v}
	case *payload.Screen:
		return ScreenView{P: v}
	case *payload.Group:
		return Group{P: v}
	case *payload.Alias:
		return Alias{P: v}
	}
	return nil
}
