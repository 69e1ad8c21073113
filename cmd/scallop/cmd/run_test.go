package cmd_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/ramonfmir/scallop/cmd/scallop/cmd"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written to it; run/dump-ram print via fmt.Println directly
// rather than through cobra's OutOrStdout, so capturing needs the pipe.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	fnErr := fn()
	os.Stdout = orig
	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), fnErr
}

func TestRunTransitiveClosurePrintsCSV(t *testing.T) {
	cmd.SetArgsForTest([]string{"run", "transitive-closure"})
	out, err := captureStdout(t, cmd.Execute)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("# path")) {
		t.Fatalf("expected output to name the path relation, got %q", out)
	}
}

func TestRunUnknownExampleFails(t *testing.T) {
	cmd.SetArgsForTest([]string{"run", "no-such-example"})
	if _, err := captureStdout(t, cmd.Execute); err == nil {
		t.Fatalf("expected an error for an unknown example")
	}
}

func TestDumpRAMPrintsJSON(t *testing.T) {
	cmd.SetArgsForTest([]string{"dump-ram", "successor-count"})
	out, err := captureStdout(t, cmd.Execute)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("strata")) {
		t.Fatalf("expected JSON dump to contain a strata key, got %q", out)
	}
}
