package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "eleflat", cmd.Use)
	assert.Contains(t, cmd.Long, "flat")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"convert", "batch", "cuts", "overlay", "runs", "verify"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
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

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestConvertCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	convertCmd, _, err := cmd.Find([]string{"convert"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"sample":     "",
		"match":      "true",
		"region":     "barrel",
		"format-out": "",
		"max-events": "-1",
	} {
		f := convertCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestOverlayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	overlayCmd, _, err := cmd.Find([]string{"overlay"})
	require.NoError(t, err)

	assert.NotNil(t, overlayCmd.Flags().Lookup("bins"))
	assert.NotNil(t, overlayCmd.Flags().Lookup("min"))
	assert.NotNil(t, overlayCmd.Flags().Lookup("max"))
	assert.NotNil(t, overlayCmd.Flags().Lookup("no-cuts"))
}

func TestRunsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runsCmd, _, err := cmd.Find([]string{"runs"})
	require.NoError(t, err)

	xlsx := runsCmd.Flags().Lookup("xlsx")
	require.NotNil(t, xlsx)
	assert.Equal(t, "", xlsx.DefValue)
}

func TestInvalidFormatIsCommandError(t *testing.T) {
	code, _, _ := execute(t, "--format", "yaml", "runs")
	assert.Equal(t, ExitCommandError, code)
}
