package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumalang/luma/checker"
	"github.com/lumalang/luma/parser"
)

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Parse and type-check a program without compiling it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := getSource(cmd, args)
			if err != nil {
				return err
			}
			var parserOpts []parser.Option
			if filename != "" {
				parserOpts = append(parserOpts, parser.WithFilename(filename))
			}
			program, err := parser.Parse(cmd.Context(), source, parserOpts...)
			if err != nil {
				printDiagnostics(err)
				os.Exit(1)
			}
			if err := checker.Check(program,
				checker.WithSource(source), checker.WithFilename(filename)); err != nil {
				printDiagnostics(err)
				os.Exit(1)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
