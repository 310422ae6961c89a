package cli

import (
	"fmt"
	"time"

	"github.com/mbutane/mbutane/pkg/version"
	"github.com/spf13/cobra"
)

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the mbutane version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mbutane %s", version.Version())
			if version.GitSHA() != "" {
				fmt.Printf(" (%s)", version.GitSHA())
			}
			if !version.BuildTime().IsZero() {
				fmt.Printf(" built %s", version.BuildTime().Format(time.RFC3339))
			}
			fmt.Println()
		},
	}
}
