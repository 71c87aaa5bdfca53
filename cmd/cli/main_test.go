package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/checkgrid/internal/cli"
)

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunWithSettings(t *testing.T) {
	root := t.TempDir()
	settingsPath := filepath.Join(root, "checkgrid.hcl")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`
integration "dependency-check" {
  threshold = 10
}
`), 0o600))

	var out bytes.Buffer
	err := run(&out, []string{"-root", root, "-log-format", "json", settingsPath})
	assert.NoError(t, err)
}

func TestRunInvalidFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-log-format", "xml"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunMissingSettingsFile(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-root", t.TempDir(), "nope.hcl"})
	assert.ErrorContains(t, err, "failed to load settings")
}
