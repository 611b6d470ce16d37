package integration

import (
	"log/slog"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
)

// Factory creates an integration from its project settings.
//
// Create may return (nil, nil) when settings leave the integration disabled;
// the client skips it.
type Factory interface {
	Key() string
	Create(settings config.Config, logger *slog.Logger) (Integration, error)
}

// FactoryFunc adapts a function to Factory.
func FactoryFunc(key string, fn func(config.Config, *slog.Logger) (Integration, error)) Factory {
	return funcFactory{key: key, fn: fn}
}

type funcFactory struct {
	key string
	fn  func(config.Config, *slog.Logger) (Integration, error)
}

func (f funcFactory) Key() string { return f.key }

func (f funcFactory) Create(settings config.Config, logger *slog.Logger) (Integration, error) {
	return f.fn(settings, logger)
}
