package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/presentation/tui"
)

// helpCmd documents node templates and falls back to command help.
var helpCmd = &cobra.Command{
	Use:   "help [command | template]",
	Short: "Help about a command or a node template",
	Long: `Help about a command, or, for a template identifier such as std.Sin,
the template's documentation and ports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && strings.Contains(args[0], ".") {
			info, err := app.NewService().Template(args[0])
			if err != nil {
				return err
			}
			out, err := tui.NewRenderer(os.Stdout)(info.Markdown())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		target, _, err := cmd.Root().Find(args)
		if target == nil || err != nil {
			return errors.Join(fmt.Errorf("unknown help topic %q", strings.Join(args, " ")), err)
		}
		return target.Help()
	},
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
}
