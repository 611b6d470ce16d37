package payload

import "time"

// AllIntegrations is the integration switch key that sets the default for
// every integration not named explicitly.
const AllIntegrations = "All"

// Options carries per-call settings: integration switches, extra context and
// a timestamp override. The zero value and nil are both valid.
type Options struct {
	integrations map[string]bool
	context      *ValueMap
	timestamp    time.Time
}

// NewOptions returns empty options.
func NewOptions() *Options {
	return &Options{}
}

// SetIntegration enables or disables delivery to the integration with key
// for this call. Use AllIntegrations to change the default.
func (o *Options) SetIntegration(key string, enabled bool) *Options {
	if o.integrations == nil {
		o.integrations = make(map[string]bool)
	}
	o.integrations[key] = enabled
	return o
}

// PutContext adds a custom context entry merged into the payload context.
func (o *Options) PutContext(key string, value any) *Options {
	if o.context == nil {
		o.context = NewValueMap()
	}
	o.context.Put(key, value)
	return o
}

// SetTimestamp overrides the payload timestamp.
func (o *Options) SetTimestamp(t time.Time) *Options {
	o.timestamp = t
	return o
}

// Integrations returns a copy of the integration switches.
func (o *Options) Integrations() map[string]bool {
	if o == nil {
		return map[string]bool{}
	}
	return copySwitches(o.integrations)
}

// Context returns a copy of the custom context.
func (o *Options) Context() *ValueMap {
	if o == nil {
		return NewValueMap()
	}
	return o.context.Clone()
}

// Timestamp returns the override, or the zero time.
func (o *Options) Timestamp() time.Time {
	if o == nil {
		return time.Time{}
	}
	return o.timestamp
}

func copySwitches(m map[string]bool) map[string]bool {
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// WithDefaultContext returns a copy of o whose context is defaults overlaid
// with o's own entries. o is not modified.
func (o *Options) WithDefaultContext(defaults *ValueMap) *Options {
	c := &Options{context: defaults.Clone()}
	if o == nil {
		return c
	}
	c.integrations = copySwitches(o.integrations)
	c.timestamp = o.timestamp
	c.context.PutAll(o.context)
	return c
}
