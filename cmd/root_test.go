package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"reconcile", "migrate", "runs", "resolve-programs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ratings-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestReconcileCommand_Flags(t *testing.T) {
	defaults := map[string]string{
		"limit":         "0",
		"delay":         "0",
		"university-id": "0",
		"batch":         "false",
		"threshold":     "0",
		"metric":        "",
		"format":        "table",
	}
	for name, def := range defaults {
		flag := reconcileCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "reconcile should have --%s", name)
		assert.Equal(t, def, flag.DefValue, "--%s default", name)
	}
	assert.Equal(t, []string{"google", "yandex", "tabiturient"}, reconcileCmd.ValidArgs)
}

func TestResolveProgramsCommand_Flags(t *testing.T) {
	flag := resolveProgramsCmd.Flags().Lookup("sheet-index")
	require.NotNil(t, flag)
	assert.Equal(t, "1", flag.DefValue)

	for _, name := range []string{"file", "sheet", "output", "save"} {
		assert.NotNil(t, resolveProgramsCmd.Flags().Lookup(name), "resolve-programs should have --%s", name)
	}
}

func TestRunsCommand_HasList(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}
