// Package cli implements the hrctl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hrentities/pkg/client"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "hrctl" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hrctl",
		Short: "Inspect and edit HR entities",
		Long:  "hrctl works with HR entity records through the metadata the API publishes.\nPermission checks run for the user named in config.yaml.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newMetaCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newAccessCmd())
	root.AddCommand(newSettingsCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// sysError marks failures of the local environment rather than of the
// request, such as an unwritable config directory.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// openInstance loads the configuration and builds a client instance. The
// caller must Close it.
func openInstance(cmd *cobra.Command) (*client.Instance, error) {
	cfg, err := loadConfig(flags.configDir, flags.dataDir)
	if err != nil {
		return nil, err
	}
	inst, err := client.New(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	return inst, nil
}
