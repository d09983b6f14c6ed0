package machine_test

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxeonyx/kal-go/internal/filetest"
	"github.com/maxeonyx/kal-go/lang/machine"
	"github.com/maxeonyx/kal-go/lang/parser"
	"github.com/maxeonyx/kal-go/lang/token"
)

var testUpdateEvalTests = flag.Bool("test.update-eval-tests", false, "If set, replace expected eval test results with actual results.")

// TestEvalFiles evaluates the programs in testdata/*.kal and compares the
// printed result value with the golden file in testdata/results.
func TestEvalFiles(t *testing.T) {
	dir := "testdata"
	resultDir := filepath.Join(dir, "results")
	for _, fi := range filetest.SourceFiles(t, dir, ".kal") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			require.NoError(t, err)

			block, err := parser.Parse(&token.File{Name: fi.Name()}, src)
			require.NoError(t, err)

			in := machine.New()
			in.MaxSteps = 1 << 20
			v, err := in.Run(context.Background(), block)
			require.NoError(t, err)

			filetest.DiffOutput(t, fi, v.String()+"\n", resultDir, testUpdateEvalTests)
		})
	}
}
