package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/maxeonyx/kal-go/lang/scanner"
	"github.com/maxeonyx/kal-go/lang/token"
	"github.com/mna/mainer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans each file and prints its tokens, one per line with
// their position.
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var errs scanner.ErrorList
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		file := &token.File{Name: name}
		var s scanner.Scanner
		s.Init(file, src, func(pos token.Pos, msg string) {
			line, col := pos.LineCol()
			errs.Add(token.Position{Filename: name, Line: line, Column: col}, msg)
		})
		for {
			tv := s.Scan()
			fmt.Fprintf(stdio.Stdout, "%s: %s", token.FormatPos(file, tv.Pos), tv.Token)
			if tv.Lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", tv.Lit)
			}
			fmt.Fprintln(stdio.Stdout)
			if tv.Token == token.EOF {
				break
			}
		}
	}
	if err := errs.Err(); err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}
	return nil
}
