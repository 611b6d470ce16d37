/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches by returning default values. pulse uses it
for client options, per-integration settings and the tracking plan.

# Basic Usage

	cfg := config.New(map[string]any{
	    "flush_schedule":   "@every 30s",
	    "shutdown_timeout": "5s",
	    "record_screen_views": true,
	})

	timeout := cfg.Duration("shutdown_timeout", 10*time.Second) // 5s
	views := cfg.Bool("record_screen_views", false)              // true

Nested sections chain through Sub, which never returns nil:

	redis := cfg.Sub("integrations").Sub("Redis")
	addr := redis.String("addr", "localhost:6379")

# File Loading

FromFile picks a parser from the extension: .yaml/.yml, .json or .toml.

	cfg, err := config.FromFile("pulse.toml")

# Watching

Watch reloads a file when it changes on disk:

	err := config.Watch(ctx, "pulse.yaml", func(cfg config.Config, err error) {
	    if err != nil {
	        logger.Warn("reload failed", "error", err)
	        return
	    }
	    apply(cfg)
	})

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
