package cli

import (
	"bytes"
	"testing"

	"github.com/douzebis/yb/internal/transport"
	"github.com/douzebis/yb/pkg/yblob"
)

// newTestDeps returns a Deps wired to a freshly formatted, authenticated
// in-memory mock device, for exercising command Exec functions directly
// without going through Run's flag/dispatch layer.
func newTestDeps(t *testing.T, stdin *bytes.Buffer) *Deps {
	t.Helper()

	mgmt := [24]byte{1, 2, 3}

	dev, err := transport.NewMock(0x9d, "123456", mgmt)
	if err != nil {
		t.Fatalf("NewMock: %v", err)
	}

	if err := dev.AuthenticateManagement(mgmt); err != nil {
		t.Fatalf("AuthenticateManagement: %v", err)
	}

	if _, err := yblob.Format(dev, yblob.Geometry{Count: 8, ObjectSize: 256, KeySlot: 0x9d}); err != nil {
		t.Fatalf("Format: %v", err)
	}

	var stdinReader *bytes.Buffer
	if stdin != nil {
		stdinReader = stdin
	} else {
		stdinReader = &bytes.Buffer{}
	}

	return &Deps{
		Config: DefaultConfig(),
		Dev:    dev,
		Cred:   yblob.Credentials{ManagementKey: &mgmt},
		Stdin:  stdinReader,
	}
}

func newIOCapture() (*IO, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	return NewIO(out, errOut), out, errOut
}
