// Command expensectl manages expenses through the expense API from a terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	completion().Complete("expensectl")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.StringVar(&apiURL, "api", defaultAPIURL(), "Base URL of the expense API (EXPENSE_API_URL).")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
