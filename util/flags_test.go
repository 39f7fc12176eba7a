package util

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagNameToEnvVar(t *testing.T) {
	assert.Equal(t, "AWI_TARGET_DIR", FlagNameToEnvVar("target-dir", EnvPrefix))
	assert.Equal(t, "AWI_LAUNCH", FlagNameToEnvVar("launch", EnvPrefix))
}

func TestSetFlagsFromEnvVars(t *testing.T) {
	var (
		targetDir string
		launch    bool
	)
	cmd := &cobra.Command{
		Use: "install",
		Run: func(cmd *cobra.Command, args []string) {},
	}
	cmd.PersistentFlags().StringVar(&targetDir, "target-dir", "/opt/antares-web", "")
	cmd.Flags().BoolVar(&launch, "launch", true, "")

	t.Setenv("AWI_TARGET_DIR", "/tmp/antares")
	t.Setenv("AWI_LAUNCH", "false")

	SetFlagsFromEnvVars(cmd)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/tmp/antares", targetDir)
	assert.False(t, launch)
}
