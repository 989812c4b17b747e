package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"find", "blocks", "dump", "paths", "add", "watch"} {
		assert.True(t, names[want], "command %q missing", want)
	}
}

func TestRootFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("root"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("settings"))
}
