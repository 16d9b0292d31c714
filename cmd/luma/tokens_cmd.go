package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumalang/luma/internal/table"
	"github.com/lumalang/luma/lexer"
)

func tokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream for a program",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := getSource(cmd, args)
			if err != nil {
				return err
			}
			l := lexer.New(source)
			if filename != "" {
				l.SetFilename(filename)
			}
			tokens, err := l.Tokenize()
			if err != nil {
				printDiagnostics(err)
				os.Exit(1)
			}

			var rows [][]string
			for _, tok := range tokens {
				pos := tok.StartPosition
				rows = append(rows, []string{
					fmt.Sprintf("%d:%d", pos.LineNumber(), pos.ColumnNumber()),
					string(tok.Type),
					tok.Literal,
				})
			}
			table.NewTable(os.Stdout).
				WithHeader([]string{"POSITION", "TYPE", "LITERAL"}).
				WithColumnAlignment([]table.Alignment{
					table.AlignRight, table.AlignLeft, table.AlignLeft,
				}).
				WithHeaderAlignment([]table.Alignment{
					table.AlignCenter, table.AlignCenter, table.AlignCenter,
				}).
				WithRows(rows).
				Render()
			return nil
		},
	}
}
