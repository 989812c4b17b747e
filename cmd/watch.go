package cmd

import (
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-parse and report whenever any parsed configuration file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openParser()
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		for _, path := range p.ParsedPaths() {
			if err := watcher.Add(path); err != nil {
				log.Printf("watch %s: %v", path, err)
			}
		}
		fmt.Printf("watching %d file(s)\n", len(p.ParsedPaths()))

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Printf("%s changed, re-parsing", ev.Name)
				fresh, _, err := openParser()
				if err != nil {
					log.Printf("re-parse failed: %v", err)
					continue
				}
				p = fresh
				// newly discovered includes get watched too
				for _, path := range p.ParsedPaths() {
					_ = watcher.Add(path) // already-watched paths are fine
				}
				fmt.Printf("parsed %d file(s)\n", len(p.ParsedPaths()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("watch error: %v", err)
			}
		}
	},
}
