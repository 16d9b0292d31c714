package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumalang/luma"
	"github.com/lumalang/luma/vm"
)

func runCommand() *cobra.Command {
	var (
		entrypoint string
		noOptimize bool
		timing     bool
	)
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Compile a program and invoke its main function",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := getSource(cmd, args)
			if err != nil {
				return err
			}
			opts := []luma.Option{
				luma.WithFilename(filename),
				luma.WithEntrypoint(entrypoint),
				luma.WithLogger(logger),
			}
			if noOptimize {
				opts = append(opts, luma.WithoutOptimization())
			}
			if flagMaxPages > 0 {
				opts = append(opts, luma.WithMaxPages(flagMaxPages))
			}

			start := time.Now()
			result, err := luma.Eval(cmd.Context(), source, opts...)
			if err != nil {
				printDiagnostics(err)
				os.Exit(1)
			}
			if timing {
				fmt.Fprintf(os.Stderr, "%v\n", time.Since(start))
			}
			if result != vm.Void {
				fmt.Println(result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "main", "Exported function to invoke")
	cmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "Skip the optimizer")
	cmd.Flags().BoolVar(&timing, "timing", false, "Show execution time")
	return cmd
}
