package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mbutane/mbutane/pkg/butane"
	"github.com/mbutane/mbutane/pkg/constants"
	"github.com/mbutane/mbutane/pkg/mbutane"
	"github.com/mbutane/mbutane/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mbutane",
		Short: "merge Butane configs and translate them into an Ignition config",
		Long: `mbutane merges multiple human-readable Butane configs and the file trees
paired with them into a single config, then translates it with the butane
tool into a machine-readable Ignition config.

The project layout is config.bu (base config), config.bu.d/*.bu (merge
configs, applied in lexicographic order) and src/<name>/ (one file tree per
config, src/main/ pairing with the base config).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			version.Init()
			_ = viper.BindPFlags(cmd.Flags())
			_ = viper.BindPFlags(cmd.PersistentFlags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mbutane.Get(viper.GetViper())
			if err != nil {
				return err
			}
			return m.ExecuteAndMaybeExit(context.Background())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("root", "C", ".", "project directory to assemble")
	cmd.PersistentFlags().String("log-level", "off", "log level (debug, info, warn, error, off)")
	cmd.PersistentFlags().String("log-format", "logfmt", "log format (logfmt, json)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().Bool("force-color", false, "force colored output")

	cmd.Flags().StringP("output", "o", constants.OutputFileName, "path of the translated Ignition config, relative to the project directory")
	cmd.Flags().String("butane", "butane", "butane binary to invoke")
	cmd.Flags().String("files-dir", "", "directory the translator resolves local file references against (defaults to the project directory)")
	cmd.Flags().Duration("timeout", butane.DefaultTimeout, "bounded wait for the butane invocation")

	cmd.AddCommand(MergeCmd())
	cmd.AddCommand(VersionCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

