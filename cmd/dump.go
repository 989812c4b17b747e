package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/pretty"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(pathsCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump [directive]",
	Short: "Print matches for a directive as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}
		matches, err := p.FindDirectives(args[0])
		if err != nil {
			return err
		}
		out := make([]map[string]any, 0, len(matches))
		for _, m := range matches {
			entry := map[string]any{
				"address": m.Addr.String(),
				"name":    m.Name,
				"params":  m.Params,
				"file":    m.SourceFile,
				"block":   m.IsBlock,
				"enabled": m.Enabled,
			}
			if m.IncludedFrom != "" {
				entry["included_from"] = m.IncludedFrom
			}
			out = append(out, entry)
		}
		fmt.Println(pretty.JSON(out, 80.3))
		return nil
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List every parsed configuration file in parse order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}
		for _, path := range p.ParsedPaths() {
			fmt.Println(path)
		}
		return nil
	},
}
