/*
Package pulse provides an in-application analytics instrumentation core.

# Overview

pulse observes application and screen lifecycle transitions, turns them and
explicit user calls into immutable payloads, and fans every resulting
operation out to a set of pluggable integrations. All integration work runs
on one serial worker, so integrations see operations in submission order and
never run concurrently with each other.

# Basic Usage

Create a client with the integrations you want and emit events:

	client, err := pulse.New(
	    pulse.WithIntegrations(logsink.New(logger)),
	    pulse.WithAppInfo(host.AppInfo{Version: "1.2.0", Build: 120}),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Shutdown(context.Background())

	props := payload.NewValueMap().Put("sku", "A-100").Put("price", 9.99)
	if err := client.Track("Order Completed", props, nil); err != nil {
	    log.Fatal(err) // blank event name
	}

Emission calls validate their arguments synchronously and return an error of
kind InvalidArgument when a required identifier is blank. They never block on
integration work and never report integration failures.

# Lifecycle Events

Pass a host.LifecycleSource with WithHost and enable
WithTrackApplicationLifecycleEvents. The client registers its
lifecycle.Observer with the source, which collapses per-screen callbacks into
"Application Opened" and "Application Backgrounded":

	emitter := host.NewEmitter()
	client, _ := pulse.New(
	    pulse.WithHost(emitter),
	    pulse.WithTrackApplicationLifecycleEvents(true),
	)
	emitter.ProcessCreated()
	emitter.ScreenStarted(host.NewScreen("main", "Main", ""))

The first process start also runs install and update detection against the
app version persisted in the store and tracks "Application Installed" or
"Application Updated".

# Integrations

An integration embeds integration.Base and overrides the hooks it cares
about. Integrations are given explicitly with WithIntegrations or built from
project settings with WithFactories and WithSettings. A hook that returns an
error or panics is isolated: the fault is logged, recorded in metrics and
optionally sent to a dead letter queue, and the remaining integrations still
receive the operation.

# Shutdown

Shutdown stops accepting work and drains the queue, bounded by the shutdown
timeout (default 5s). After shutdown every call returns ErrShutdown.
*/
package pulse
