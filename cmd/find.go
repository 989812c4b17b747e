package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/parser"
)

var (
	findValue string
	findScope string
)

func init() {
	findCmd.Flags().StringVar(&findValue, "value", "", "Require at least one parameter to equal this value")
	findCmd.Flags().StringVar(&findScope, "scope", "", "Start address, e.g. '/etc/nginx/nginx.conf[1]/http[1]'")
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(blocksCmd)
}

var findCmd = &cobra.Command{
	Use:   "find [directive]",
	Short: "Find directives by name, case-insensitively, across all includes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}
		opts, err := findOptions()
		if err != nil {
			return err
		}
		matches, err := p.FindDirectives(args[0], opts...)
		if err != nil {
			return err
		}
		printMatches(matches)
		return nil
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks [name]",
	Short: "Find blocks by name, case-insensitively, across all includes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}
		matches, err := p.FindBlocks(args[0])
		if err != nil {
			return err
		}
		printMatches(matches)
		return nil
	},
}

func findOptions() ([]parser.FindOption, error) {
	var opts []parser.FindOption
	if findValue != "" {
		opts = append(opts, parser.WithValue(findValue))
	}
	if findScope != "" {
		addr, err := api.ParseAddress(findScope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithScope(addr))
	}
	return opts, nil
}

var (
	addrColor = color.New(color.FgCyan)
	nameColor = color.New(color.FgGreen, color.Bold)
	dimColor  = color.New(color.Faint)
)

func printMatches(matches []parser.Match) {
	for _, m := range matches {
		line := fmt.Sprintf("%s  %s %s",
			addrColor.Sprint(m.Addr),
			nameColor.Sprint(m.Name),
			strings.Join(m.Params, " "))
		if !m.Enabled {
			line += dimColor.Sprint("  (disabled)")
		}
		if m.IncludedFrom != "" {
			line += dimColor.Sprintf("  (via %s)", m.IncludedFrom)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d match(es)\n", len(matches))
}
