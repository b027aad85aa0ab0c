package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the hrctl release, set at link time by the build target.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/hrentities"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hrctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "hrctl v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
