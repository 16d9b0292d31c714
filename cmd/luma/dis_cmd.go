package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumalang/luma"
	"github.com/lumalang/luma/dis"
	"github.com/lumalang/luma/wasm"
)

func disCommand() *cobra.Command {
	var funcName string
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble a compiled module",
		Long: "Disassemble a compiled module. The input may be Luma source or an\n" +
			"already-compiled .wasm binary.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := getSource(cmd, args)
			if err != nil {
				return err
			}

			var module *wasm.Module
			if isBinary(source) {
				module, err = wasm.Decode([]byte(source))
				if err != nil {
					return err
				}
			} else {
				module, err = luma.Compile(cmd.Context(), source, luma.WithFilename(filename))
				if err != nil {
					printDiagnostics(err)
					os.Exit(1)
				}
			}

			if funcName != "" {
				index, ok := module.ExportedFunc(funcName)
				if !ok {
					return fmt.Errorf("no exported function %q", funcName)
				}
				instructions, err := dis.Disassemble(module, index)
				if err != nil {
					return err
				}
				dis.Print(instructions, os.Stdout)
				return nil
			}
			return dis.PrintModule(module, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "", "Disassemble a single function")
	return cmd
}

func isBinary(source string) bool {
	return len(source) >= 4 && source[:4] == "\x00asm"
}
