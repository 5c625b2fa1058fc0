package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nyrkio/qry/internal/config"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/parser"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive qry session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

// runRepl evaluates one top-level expression per line against a single
// shared Environment, so bindings from one line are visible to the next.
// A prompt and the result of each line are only printed when stdin/stdout
// are an actual terminal, following the teacher's isatty-gated output
// convention in internal/evaluator/builtins_term.go — piped input just
// runs silently except for explicit `print` calls and errors.
func runRepl() error {
	defaults := config.LoadDefaults()
	logger := slog.Default().With("mode", "repl")

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	var history *os.File
	if interactive {
		if f, err := os.OpenFile(defaults.HistoryFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			history = f
			defer history.Close()
		}
	}

	eval := newEvaluator()
	env := eval.Global.Child()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("qry> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if history != nil {
			fmt.Fprintln(history, line)
		}

		program, err := parser.Parse("<repl>", line)
		if err != nil {
			logger.Error("parse failed", "error", err)
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		result, err := eval.EvalProgram(program, env)
		if err != nil {
			logger.Error("evaluation failed", "error", err)
			if exc, ok := err.(*evaluator.Exception); ok {
				fmt.Fprintln(os.Stderr, exc.String())
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		if interactive {
			fmt.Println(result.Inspect())
		}
	}

	return nil
}
