// Package settings holds project settings: per-integration configuration and
// the tracking plan that decides which integrations receive which events.
//
// Settings are read from a config.Config with this shape:
//
//	integrations:
//	  Redis:
//	    addr: localhost:6379
//	plan:
//	  track:
//	    __default:
//	      enabled: true
//	    Signed Up:
//	      enabled: true
//	      integrations:
//	        Kafka: false
package settings

import (
	"context"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// DefaultEventPlan is the plan key consulted for events without a plan.
const DefaultEventPlan = "__default"

// Settings is the loaded project configuration.
type Settings struct {
	// Integrations maps integration keys to their settings.
	Integrations map[string]config.Config

	// Plan is the tracking plan. Nil means no plan.
	Plan *Plan
}

// For returns the settings of integration key, or an empty Config.
func (s *Settings) For(key string) config.Config {
	if s == nil {
		return config.New(nil)
	}
	if c, ok := s.Integrations[key]; ok {
		return c
	}
	return config.New(nil)
}

// FromConfig reads Settings from cfg.
func FromConfig(cfg config.Config) *Settings {
	s := &Settings{Integrations: make(map[string]config.Config)}

	integrations := cfg.Sub("integrations")
	for _, key := range integrations.Keys() {
		s.Integrations[key] = integrations.Sub(key)
	}

	if cfg.Sub("plan").Has("track") {
		s.Plan = planFromConfig(cfg.Sub("plan").Sub("track"))
	}
	return s
}

// Load reads Settings from a config file.
func Load(path string) (*Settings, error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg), nil
}

// Watch calls fn with freshly loaded Settings each time the file at path
// changes. It stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(*Settings, error)) error {
	return config.Watch(ctx, path, func(cfg config.Config, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(FromConfig(cfg), nil)
	})
}

// EventPlan is the tracking plan entry for one event.
type EventPlan struct {
	Enabled      bool
	Integrations map[string]bool
}

// Plan is a tracking plan for track events.
type Plan struct {
	events map[string]EventPlan
}

// NewPlan builds a plan from event entries. The DefaultEventPlan key sets
// the fallback for events not listed.
func NewPlan(events map[string]EventPlan) *Plan {
	p := &Plan{events: make(map[string]EventPlan, len(events))}
	for name, ep := range events {
		p.events[name] = EventPlan{Enabled: ep.Enabled, Integrations: copyBools(ep.Integrations)}
	}
	return p
}

func planFromConfig(track config.Config) *Plan {
	events := make(map[string]EventPlan)
	for _, name := range track.Keys() {
		section := track.Sub(name)
		ep := EventPlan{Enabled: section.Bool("enabled", true)}
		if section.Has("integrations") {
			switches := section.Sub("integrations")
			ep.Integrations = make(map[string]bool, switches.Len())
			for _, key := range switches.Keys() {
				ep.Integrations[key] = switches.Bool(key, true)
			}
		}
		events[name] = ep
	}
	return NewPlan(events)
}

// EventPlan returns the entry for event.
func (p *Plan) EventPlan(event string) (EventPlan, bool) {
	if p == nil || event == DefaultEventPlan {
		return EventPlan{}, false
	}
	ep, ok := p.events[event]
	return ep, ok
}

// Default returns the DefaultEventPlan entry.
func (p *Plan) Default() (EventPlan, bool) {
	if p == nil {
		return EventPlan{}, false
	}
	ep, ok := p.events[DefaultEventPlan]
	return ep, ok
}

// Allows reports whether the integration key should receive p.
//
// Only track payloads consult the plan. For an event with a plan entry a
// disabled entry blocks every integration and per-call options cannot
// override it; otherwise the entry's switches are merged with the per-call
// switches, the per-call ones winning. For an event without an entry the
// per-call switches decide, and when there are none the default entry does.
func (p *Plan) Allows(pl payload.Payload, key string) bool {
	switches := pl.Integrations()
	track, ok := pl.(*payload.Track)
	if !ok || p == nil {
		return integration.Enabled(switches, key)
	}

	ep, ok := p.EventPlan(track.Event())
	if !ok {
		if len(switches) > 0 {
			return integration.Enabled(switches, key)
		}
		if def, ok := p.Default(); ok {
			return def.Enabled
		}
		return true
	}
	if !ep.Enabled {
		return false
	}

	merged := copyBools(ep.Integrations)
	for k, v := range switches {
		merged[k] = v
	}
	return integration.Enabled(merged, key)
}

func copyBools(m map[string]bool) map[string]bool {
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
