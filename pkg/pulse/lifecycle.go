package pulse

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
	"github.com/randalmurphal/pulse/pkg/pulse/store"
)

// Install and update event names and properties.
const (
	EventApplicationInstalled = "Application Installed"
	EventApplicationUpdated   = "Application Updated"

	PropertyPreviousVersion = "previous_version"
	PropertyPreviousBuild   = "previous_build"
)

// ApplicationLifecycle compares the app info persisted by the previous run
// with the current one, persists the current one and reports the result:
// integrations receive an ApplicationLifecycle operation, and installs and
// updates are tracked as events. The lifecycle observer calls it once per
// process.
func (c *Client) ApplicationLifecycle() error {
	if c.closed.Load() {
		return ErrShutdown
	}

	var previous host.AppInfo
	if _, err := store.LoadJSON(c.store, store.NamespaceApp, store.KeyAppInfo, &previous); err != nil {
		return fmt.Errorf("load app info: %w", err)
	}
	current := c.cfg.app
	if err := store.SaveJSON(c.store, store.NamespaceApp, store.KeyAppInfo, current); err != nil {
		c.logger.Warn("failed to persist app info", slog.String("error", err.Error()))
	}

	event := integration.Classify(previous, current)
	observability.LogLifecycleEvent(c.logger, "application "+event.Kind.String(),
		slog.String(payload.PropertyVersion, current.Version),
		slog.Int(payload.PropertyBuild, current.Build),
	)
	if err := c.Submit(integration.ApplicationLifecycle{Event: event}); err != nil {
		return err
	}

	switch event.Kind {
	case integration.ApplicationInstalled:
		props := payload.NewValueMap().
			Put(payload.PropertyVersion, current.Version).
			Put(payload.PropertyBuild, strconv.Itoa(current.Build))
		return c.Track(EventApplicationInstalled, props, nil)
	case integration.ApplicationUpdated:
		props := payload.NewValueMap().
			Put(PropertyPreviousVersion, previous.Version).
			Put(PropertyPreviousBuild, strconv.Itoa(previous.Build)).
			Put(payload.PropertyVersion, current.Version).
			Put(payload.PropertyBuild, strconv.Itoa(current.Build))
		return c.Track(EventApplicationUpdated, props, nil)
	}
	return nil
}
