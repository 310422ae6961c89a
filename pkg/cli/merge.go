package cli

import (
	"context"

	"github.com/mbutane/mbutane/pkg/mbutane"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// MergeCmd assembles and prints the merged Butane config without invoking
// the translator. Useful for inspecting what butane would receive.
func MergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "print the merged Butane config without translating it",
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("merge-only", true)
			m, err := mbutane.Get(viper.GetViper())
			if err != nil {
				return err
			}
			return m.ExecuteAndMaybeExit(context.Background())
		},
	}

	return cmd
}
