package cli

import (
	"strings"
	"testing"

	"github.com/douzebis/yb/pkg/yblob"
)

func TestExecFsck_DumpsFreeAndLiveRecords(t *testing.T) {
	deps := newTestDeps(t, nil)

	if err := yblob.StoreBlob(deps.Dev, "one", []byte("x"), yblob.Plaintext, deps.Cred); err != nil {
		t.Fatalf("StoreBlob: %v", err)
	}

	o, out, _ := newIOCapture()

	if err := execFsck(o, deps); err != nil {
		t.Fatalf("execFsck: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("execFsck() wrote %d lines, want 8 (Count=8 in newTestDeps):\n%s", len(lines), out.String())
	}

	freeLines, headLines := 0, 0

	for _, line := range lines {
		switch {
		case strings.Contains(line, "free"):
			freeLines++
		case strings.Contains(line, `name="one"`):
			headLines++
		}
	}

	if headLines != 1 {
		t.Fatalf("execFsck() output has %d head lines for %q, want 1:\n%s", headLines, "one", out.String())
	}

	if freeLines != 7 {
		t.Fatalf("execFsck() output has %d free lines, want 7:\n%s", freeLines, out.String())
	}
}
