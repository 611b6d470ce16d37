package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	rootCmd := NewRootCommand()
	require.NotNil(t, rootCmd)
	assert.Equal(t, "pulsed", rootCmd.Use)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "pulsed runs a pulse client behind an HTTP API")
	for _, flag := range []string{"--config", "--addr", "--log-level", "--watch"} {
		assert.Contains(t, buf.String(), flag)
	}
}

func TestRootCommand_FlagDefaults(t *testing.T) {
	flags := NewRootCommand().Flags()

	tests := map[string]string{
		"config":    "pulse.yaml",
		"addr":      ":8080",
		"log-level": "info",
		"watch":     "false",
	}
	for name, want := range tests {
		f := flags.Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"--log-level", "loud"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}

func TestRootCommand_MissingConfig(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--addr", "127.0.0.1:0"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"extra"})

	assert.Error(t, rootCmd.Execute())
}
