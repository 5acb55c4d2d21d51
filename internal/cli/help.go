package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/output"
)

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends the available subcommands to a parent command's
// Long text, so "crossdrop deploy --help" lists "list" next to the deploy
// description. The root is skipped; its help already shows the groups.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() || !cmd.HasParent() {
		return
	}

	tbl := output.NewTable("COMMAND", "DESCRIPTION")
	tbl.SetNoHeader(true)
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			tbl.AddRow(sub.Name(), sub.Short)
		}
	}
	if tbl.Len() == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")
	for _, line := range strings.Split(strings.TrimRight(tbl.String(), "\n"), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	cmd.Long = sb.String()
}
