package main

import "github.com/agentic-research/conftree/cmd"

func main() {
	cmd.Execute()
}
