// Package cmd wires the conftree CLI: inspection and edit commands over a
// server configuration forest.
package cmd

import (
	"fmt"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/conftree/internal/config"
	"github.com/agentic-research/conftree/parser"
)

var (
	serverRoot   string
	settingsPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverRoot, "root", "r", "", "Server configuration root (e.g. /etc/nginx)")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "", "Path to conftree settings yaml")
}

var rootCmd = &cobra.Command{
	Use:   "conftree",
	Short: "Conftree: query and edit server configuration trees",
	Long: `Conftree parses Apache/nginx-family configuration into an editable AST,
follows Include directives across files, and applies guarded edits without
disturbing content it does not understand.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openParser resolves settings and flags, then opens the forest. The --root
// flag wins over the settings file.
func openParser() (*parser.Parser, billy.Filesystem, error) {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return nil, nil, err
	}
	root := settings.ServerRoot
	if serverRoot != "" {
		root = serverRoot
	}

	fs := osfs.New("/")
	p, err := parser.Open(fs, root,
		parser.WithRootCandidates(settings.RootCandidates...),
		parser.WithVhostGlob(settings.VhostGlob))
	if err != nil {
		return nil, nil, err
	}
	for _, f := range p.Failures() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", f)
	}
	return p, fs, nil
}
