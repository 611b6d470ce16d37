// Package host defines what pulse needs from the application it instruments:
// screens, static app metadata and a source of lifecycle signals.
package host

import "github.com/randalmurphal/pulse/pkg/pulse/payload"

// Screen is one live screen of the host application.
type Screen interface {
	// ID uniquely identifies this screen instance.
	ID() string

	// Name is the display label recorded for screen views.
	Name() string

	// LaunchURI is the URI the screen was launched with, or empty.
	LaunchURI() string
}

type screen struct {
	id, name, uri string
}

// NewScreen returns a Screen with fixed values.
func NewScreen(id, name, launchURI string) Screen {
	return screen{id: id, name: name, uri: launchURI}
}

func (s screen) ID() string        { return s.id }
func (s screen) Name() string      { return s.name }
func (s screen) LaunchURI() string { return s.uri }

// AppInfo is static identity metadata of the host application.
type AppInfo struct {
	Version string `json:"version"`
	Build   int    `json:"build"`
}

// IsZero reports whether no app metadata is known.
func (a AppInfo) IsZero() bool {
	return a.Version == "" && a.Build == 0
}

// Callbacks receives host lifecycle signals.
type Callbacks interface {
	// ProcessCreated is delivered once when the host process starts.
	ProcessCreated()

	ScreenCreated(s Screen, savedState *payload.ValueMap)
	ScreenStarted(s Screen)
	ScreenResumed(s Screen)
	ScreenPaused(s Screen)
	ScreenStopped(s Screen)
	ScreenSaveState(s Screen, outState *payload.ValueMap)
	ScreenDestroyed(s Screen)
}

// LifecycleSource delivers lifecycle signals to registered callbacks.
type LifecycleSource interface {
	// Register adds cb and returns a function that removes it.
	Register(cb Callbacks) (unregister func())
}
