package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: groupConfig,
	Long:    `Print the crossdrop version, commit and build date.`,
	Example: `  crossdrop version
  crossdrop version -o json`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return formatter.Print(versionView{BuildInfo: buildInfo, Go: runtime.Version()})
	},
}

type versionView struct {
	BuildInfo

	Go string `json:"go"`
}

func (v versionView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "crossdrop %s %s\n", formatVersion(v.BuildInfo), v.Go)
	return err
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
