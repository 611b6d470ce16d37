package integration_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		switches map[string]bool
		key      string
		want     bool
	}{
		{"empty switches", nil, "A", true},
		{"explicit off", map[string]bool{"A": false}, "A", false},
		{"other key off", map[string]bool{"B": false}, "A", true},
		{"all off", map[string]bool{"All": false}, "A", false},
		{"all off explicit on", map[string]bool{"All": false, "A": true}, "A", true},
		{"all on explicit off", map[string]bool{"All": true, "A": false}, "A", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, integration.Enabled(tt.switches, tt.key))
		})
	}
}

func TestClassify(t *testing.T) {
	current := host.AppInfo{Version: "2.0", Build: 20}

	ev := integration.Classify(host.AppInfo{}, current)
	assert.Equal(t, integration.ApplicationInstalled, ev.Kind)
	assert.Equal(t, "installed", ev.Kind.String())

	ev = integration.Classify(host.AppInfo{Version: "1.0", Build: 10}, current)
	assert.Equal(t, integration.ApplicationUpdated, ev.Kind)
	assert.Equal(t, 10, ev.Previous.Build)

	ev = integration.Classify(current, current)
	assert.Equal(t, integration.ApplicationLaunched, ev.Kind)
	assert.Equal(t, "launched", ev.Kind.String())
}

type namedSink struct {
	integration.Base
	key string
}

func (n namedSink) Key() string { return n.key }

func TestFactoryFunc(t *testing.T) {
	f := integration.FactoryFunc("Named", func(settings config.Config, _ *slog.Logger) (integration.Integration, error) {
		if !settings.Bool("enabled", true) {
			return nil, nil
		}
		return namedSink{key: settings.String("key", "Named")}, nil
	})
	assert.Equal(t, "Named", f.Key())

	in, err := f.Create(config.New(map[string]any{"key": "Custom"}), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "Custom", in.Key())

	in, err = f.Create(config.New(map[string]any{"enabled": false}), slog.Default())
	require.NoError(t, err)
	assert.Nil(t, in)
}
