package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hrentities/pkg/client"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [entity]",
		Short: "Show the user's settings, or its settings for one entity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				var (
					doc json.RawMessage
					err error
				)
				if len(args) == 1 {
					doc, err = inst.Manager().GetEntitySettings(cmd.Context(), args[0])
				} else {
					doc, err = inst.Manager().GetSettings(cmd.Context())
				}
				if err != nil {
					return err
				}
				return printRaw(cmd.OutOrStdout(), doc)
			})
		},
	}
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <entity> <json>",
		Short: "Replace the user's settings for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("settings for %s: invalid JSON", args[0])
			}
			return withInstance(cmd, func(inst *client.Instance) error {
				doc, err := inst.Manager().UpdateEntitySettings(cmd.Context(), args[0], json.RawMessage(args[1]))
				if err != nil {
					return err
				}
				return printRaw(cmd.OutOrStdout(), doc)
			})
		},
	}
}
