package maincmd

import (
	"context"
	"fmt"
	"os"

	env "github.com/caarlos0/env/v6"
	"github.com/maxeonyx/kal-go/lang/machine"
	"github.com/maxeonyx/kal-go/lang/parser"
	"github.com/maxeonyx/kal-go/lang/scanner"
	"github.com/maxeonyx/kal-go/lang/token"
	"github.com/mna/mainer"
)

// RunConfig is the environment-sourced configuration of the run command.
type RunConfig struct {
	// MaxSteps aborts evaluation after this many instruction steps; 0 means
	// no limit.
	MaxSteps uint64 `env:"KAL_MAX_STEPS"`

	// Trace prints every evaluation step to standard error.
	Trace bool `env:"KAL_TRACE"`
}

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var cfg RunConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return RunFiles(ctx, stdio, cfg, args...)
}

// RunFiles parses and evaluates each file in turn, printing each program's
// resulting value. An unhandled error effect prints as an effect value; a
// fatal evaluation error stops the run.
func RunFiles(ctx context.Context, stdio mainer.Stdio, cfg RunConfig, files ...string) error {
	for _, name := range files {
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

		in := machine.New()
		in.MaxSteps = cfg.MaxSteps
		if cfg.Trace {
			in.Trace = stdio.Stderr
		}
		v, err := in.Run(ctx, block)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
			return err
		}
		fmt.Fprintln(stdio.Stdout, v)
	}
	return nil
}
