package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/conftree/api"
)

var (
	addModule string
	addScope  string
	addDryRun bool
)

func init() {
	addCmd.Flags().StringVarP(&addModule, "module", "m", "", "Guard the directive with <IfModule module>, e.g. mod_ssl.c")
	addCmd.Flags().StringVar(&addScope, "scope", "", "Target block address (default: root file)")
	addCmd.Flags().BoolVarP(&addDryRun, "dry-run", "n", false, "Mutate in memory but do not save")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [directive] [args...]",
	Short: "Append a directive, optionally inside a module guard block",
	Long: `Append a directive as the last child of the target block. With --module the
directive goes inside an <IfModule> guard, created on first use and reused
afterwards, so repeated invocations never duplicate the guard.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}

		var scope api.Address
		if addScope != "" {
			if scope, err = api.ParseAddress(addScope); err != nil {
				return err
			}
		}

		name, values := args[0], args[1:]
		if addModule != "" {
			addr, err := p.AddDirectiveInConditional(scope, addModule, name, values...)
			if err != nil {
				return err
			}
			fmt.Printf("added %s at %s\n", name, addr)
		} else {
			if err := p.AddDirective(scope, name, values...); err != nil {
				return err
			}
			fmt.Printf("added %s\n", name)
		}

		if addDryRun {
			fmt.Printf("dry run; unsaved: %v\n", p.UnsavedFiles())
			return nil
		}
		saved, err := p.Save()
		if err != nil {
			return err
		}
		for _, f := range saved {
			fmt.Printf("wrote %s\n", f)
		}
		return nil
	},
}
