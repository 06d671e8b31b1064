package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	main "github.com/akarpov/shelfwatch/cmd/shelfwatch"
	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	// Use kong.Exit to prevent os.Exit from being called during tests
	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()

	expectedCommands := []string{"update", "watch", "urls"}
	for _, cmd := range expectedCommands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	helpOutput := stdout.String()
	expectedCommands := []string{"update", "watch", "urls"}
	for _, cmd := range expectedCommands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}

	assert.Contains(t, helpOutput, "Usage:", "Help should have Kong-style Usage prefix")
	assert.Contains(t, helpOutput, "Flags:", "Help should have Kong-style Flags section")
}
