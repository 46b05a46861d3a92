package cli

import (
	"strings"
	"testing"

	"github.com/douzebis/yb/pkg/yblob"
)

func TestExecLs_EmptyStore(t *testing.T) {
	deps := newTestDeps(t, nil)
	o, out, _ := newIOCapture()

	if err := execLs(o, deps); err != nil {
		t.Fatalf("execLs: %v", err)
	}

	if out.String() != "" {
		t.Fatalf("execLs() on an empty store wrote %q, want nothing", out.String())
	}
}

func TestExecLs_ListsStoredBlobs(t *testing.T) {
	deps := newTestDeps(t, nil)

	if err := yblob.StoreBlob(deps.Dev, "alpha", []byte("12345"), yblob.Plaintext, deps.Cred); err != nil {
		t.Fatalf("StoreBlob: %v", err)
	}

	if err := yblob.StoreBlob(deps.Dev, "beta", []byte("x"), yblob.Encrypted, deps.Cred); err != nil {
		t.Fatalf("StoreBlob: %v", err)
	}

	o, out, _ := newIOCapture()

	if err := execLs(o, deps); err != nil {
		t.Fatalf("execLs: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("execLs() wrote %d lines, want 2:\n%s", len(lines), out.String())
	}

	if !strings.Contains(lines[0], "alpha") || strings.Contains(lines[0], "enc") {
		t.Fatalf("first line = %q, want alpha unencrypted", lines[0])
	}

	if !strings.Contains(lines[1], "beta") || !strings.Contains(lines[1], "enc") {
		t.Fatalf("second line = %q, want beta marked enc", lines[1])
	}
}
