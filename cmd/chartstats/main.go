package main

import cmd "github.com/rohmanhakim/chartstats/internal/cli"

func main() {
	cmd.Execute()
}
