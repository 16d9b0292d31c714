package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	lumaerrors "github.com/lumalang/luma/errors"
)

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", color.New(color.FgRed).Sprint(s))
	os.Exit(1)
}

func isTerminalOutput() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// getSource determines what code is to be compiled. There are three
// possibilities: --code <code>, --stdin, or a file path as args[0].
func getSource(cmd *cobra.Command, args []string) (string, string, error) {
	codeFlagSet := cmd.Flags().Lookup("code").Changed
	pathSupplied := len(args) > 0
	count := 0
	for _, set := range []bool{codeFlagSet, flagStdin, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", "", errors.New("multiple input sources specified")
	}
	switch {
	case flagStdin:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	case codeFlagSet:
		return flagCode, "", nil
	}
	return "", "", errors.New("no input: pass a file, --code, or --stdin")
}

// printDiagnostics renders compile errors with the colored formatter and
// falls back to the plain message for anything else.
func printDiagnostics(err error) {
	diags := lumaerrors.Diagnostics(err)
	if len(diags) == 0 {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	formatter := lumaerrors.NewFormatter(!color.NoColor)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, formatter.Format(d.ToFormatted()))
	}
}
