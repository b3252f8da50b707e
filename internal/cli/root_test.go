package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "silvernote", cmd.Use)
	assert.Contains(t, cmd.Long, "full-text search")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"}, {"search"}, {"explain"}, {"metadata"}, {"import"}, {"export"}, {"test"},
		{"notebook", "create"}, {"notebook", "list"}, {"notebook", "select"}, {"notebook", "delete"},
		{"note", "create"}, {"note", "show"}, {"note", "update"}, {"note", "delete"}, {"note", "purge"},
		{"category", "create"}, {"category", "list"}, {"category", "delete"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"store", "user", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "--%s", name)
	}
}

func TestSearchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	searchCmd, _, err := cmd.Find([]string{"search"})
	require.NoError(t, err)

	sortFlag := searchCmd.Flags().Lookup("sort")
	require.NotNil(t, sortFlag)
	assert.Equal(t, "ViewedAt", sortFlag.DefValue)

	pageFlag := searchCmd.Flags().Lookup("page")
	require.NotNil(t, pageFlag)
	assert.Equal(t, "1", pageFlag.DefValue)

	assert.NotNil(t, searchCmd.Flags().Lookup("page-size"))
	assert.NotNil(t, searchCmd.Flags().Lookup("modified-after"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "explain", "hello"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitUsage, GetExitCode(err))
}
