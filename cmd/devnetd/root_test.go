package main_test

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	devnetd "github.com/0xSpaceShard/starknet-devnet-go/cmd/devnetd"
	"github.com/0xSpaceShard/starknet-devnet-go/node"
)

// TestConfigPrecedence checks that flags win over a config file, which
// wins over node.Default()'s own defaults. Viper handles every
// combination; only a representative few are exercised here, same as
// the precedence test this one is modeled on.
func TestConfigPrecedence(t *testing.T) {
	def := node.Default()

	tests := map[string]struct {
		cfgFile         bool
		cfgFileContents string
		expectErr       bool
		inputArgs       []string
		expectedConfig  func() *node.Config
	}{
		"default config with no flags": {
			inputArgs:      []string{""},
			expectedConfig: func() *node.Config { return def },
		},
		"config file path is empty string": {
			inputArgs:      []string{"--config", ""},
			expectedConfig: func() *node.Config { return def },
		},
		"config file doesn't exist": {
			inputArgs: []string{"--config", "config-file-test.yaml"},
			expectErr: true,
		},
		"config file with some settings but without any other flags": {
			cfgFile: true,
			cfgFileContents: `log-level: debug
port: 4576
`,
			expectedConfig: func() *node.Config {
				c := *def
				c.LogLevel = zapcore.DebugLevel
				c.Port = 4576
				return &c
			},
		},
		"all flags without config file": {
			inputArgs: []string{
				"--log-level", "debug", "--port", "4576",
				"--chain-id", "SN_INTEGRATION_SEPOLIA", "--total-accounts", "3",
			},
			expectedConfig: func() *node.Config {
				c := *def
				c.LogLevel = zapcore.DebugLevel
				c.Port = 4576
				c.ChainID = "SN_INTEGRATION_SEPOLIA"
				c.TotalAccounts = 3
				return &c
			},
		},
		"all settings set in both config file and flags": {
			cfgFile: true,
			cfgFileContents: `log-level: warn
port: 4576
total-accounts: 5
`,
			inputArgs: []string{
				"--log-level", "error", "--port", "4577",
			},
			expectedConfig: func() *node.Config {
				c := *def
				c.LogLevel = zapcore.ErrorLevel
				c.Port = 4577
				c.TotalAccounts = 5
				return &c
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if tc.cfgFile {
				fileN := tempCfgFile(t, tc.cfgFileContents)
				tc.inputArgs = append(tc.inputArgs, "--config", fileN)
			}

			cfg := new(node.Config)
			cmd := devnetd.NewCmd(cfg, func(_ *cobra.Command, _ []string) error { return nil })
			cmd.SetArgs(tc.inputArgs)

			err := cmd.ExecuteContext(context.Background())
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.expectedConfig(), cfg)
		})
	}
}

func tempCfgFile(t *testing.T, cfg string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "devnetdCfg.*.yaml")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	_, err = f.WriteString(cfg)
	require.NoError(t, err)

	require.NoError(t, f.Sync())

	return f.Name()
}
