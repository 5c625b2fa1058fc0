// Command qry runs qry scripts and a REPL, in the same spirit as the
// teacher's cmd/funxy binary: catch panics into a "this is a bug" report
// rather than a raw stack trace, print runtime failures to stderr, and
// exit 1 on any error. Unlike cmd/funxy's hand-rolled os.Args switch
// (pkg/cli/entry.go), subcommands are wired with cobra (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyrkio/qry/internal/config"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("QRY_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug in qry, please report it")
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:   "qry",
		Short: "A tree-walking interpreter for the qry relational scripting language",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runRepl()
			}
			return runFiles(args)
		},
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qry version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("qry", config.Version)
			return nil
		},
	}
}
