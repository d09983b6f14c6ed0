package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/maxeonyx/kal-go/lang/ast"
	"github.com/maxeonyx/kal-go/lang/parser"
	"github.com/maxeonyx/kal-go/lang/scanner"
	"github.com/maxeonyx/kal-go/lang/token"
	"github.com/mna/mainer"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, c.WithPos, args...)
}

// ParseFiles parses each file and prints its AST.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, withPos bool, files ...string) error {
	printer := ast.Printer{
		Output: stdio.Stdout,
		Pos:    withPos,
	}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		block, err := parser.Parse(&token.File{Name: name}, src)
		if err != nil {
			scanner.PrintError(stdio.Stderr, err)
			return err
		}
		if err := printer.Print(block); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	}
	return nil
}
