package cmd

import (
	"fmt"
	"strings"

	"github.com/sixafter/semver"
	"github.com/spf13/cobra"
)

// version is set at build time via
// --ldflags="-X github.com/entropic-systems/corerand/cmd/rngctl/cmd.version=vX.Y.Z".
var version = "v0.0.0-unset"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rngctl version",
	Run: func(cmd *cobra.Command, args []string) {
		v, err := semver.Parse(strings.TrimPrefix(version, "v"))
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s (unparsed)\n", version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", v.String())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
