package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumalang/luma"
)

func buildCommand() *cobra.Command {
	var (
		output     string
		noOptimize bool
	)
	cmd := &cobra.Command{
		Use:   "build [file]",
		Short: "Compile a program to a .wasm binary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := getSource(cmd, args)
			if err != nil {
				return err
			}
			opts := []luma.Option{luma.WithFilename(filename)}
			if noOptimize {
				opts = append(opts, luma.WithoutOptimization())
			}
			if flagMaxPages > 0 {
				opts = append(opts, luma.WithMaxPages(flagMaxPages))
			}
			module, err := luma.Compile(cmd.Context(), source, opts...)
			if err != nil {
				printDiagnostics(err)
				os.Exit(1)
			}

			out := output
			if out == "" {
				out = outputName(filename)
			}
			if err := os.WriteFile(out, module.Encode(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: input with .wasm)")
	cmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "Skip the optimizer")
	return cmd
}

func outputName(filename string) string {
	if filename == "" || filename == "<stdin>" {
		return "out.wasm"
	}
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ".wasm"
}
