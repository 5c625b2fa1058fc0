package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/parser"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file> [file...]",
		Short: "Run one or more qry scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(args)
		},
	}
}

// runFiles evaluates each file as its own independent, single-threaded
// script, bounded by errgroup when there's more than one — concurrency
// is only ever across scripts, never within one (spec.md §5's evaluation
// model is single-threaded per program).
func runFiles(files []string) error {
	if len(files) == 1 {
		return runFile(files[0])
	}

	var g errgroup.Group
	for _, f := range files {
		f := f
		g.Go(func() error { return runFile(f) })
	}
	return g.Wait()
}

func runFile(path string) error {
	runID := uuid.New()
	logger := slog.Default().With("run", runID, "file", path)

	src, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return err
	}

	program, err := parser.Parse(path, string(src))
	if err != nil {
		logger.Error("parse failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return err
	}

	eval := newEvaluator()
	env := eval.Global.Child()
	if _, err := eval.EvalProgram(program, env); err != nil {
		logger.Error("evaluation failed", "error", err)
		if exc, ok := err.(*evaluator.Exception); ok {
			fmt.Fprintln(os.Stderr, exc.String())
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		}
		return err
	}
	return nil
}
