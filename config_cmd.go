package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if cc.Flags.JSON {
				return config.RenderJSON(cc.Cfg, cmd.OutOrStdout())
			}

			return config.RenderEffective(cc.Cfg, cc.CfgPath, cmd.OutOrStdout())
		},
	}
}
