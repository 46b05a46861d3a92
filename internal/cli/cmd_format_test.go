package cli

import (
	"errors"
	"testing"

	"github.com/douzebis/yb/internal/transport"
	"github.com/douzebis/yb/pkg/yblob"
)

func newFormatTestDeps(t *testing.T) *Deps {
	t.Helper()

	mgmt := [24]byte{1}

	dev, err := transport.NewMock(0x9d, "123456", mgmt)
	if err != nil {
		t.Fatalf("NewMock: %v", err)
	}

	if err := dev.AuthenticateManagement(mgmt); err != nil {
		t.Fatalf("AuthenticateManagement: %v", err)
	}

	return &Deps{Config: DefaultConfig(), Dev: dev, Cred: yblob.Credentials{ManagementKey: &mgmt}}
}

func TestExecFormat_UsesConfigDefaults(t *testing.T) {
	deps := newFormatTestDeps(t)
	o, out, _ := newIOCapture()

	if err := execFormat(o, deps, 0, 0, "", false, ""); err != nil {
		t.Fatalf("execFormat: %v", err)
	}

	if out.String() == "" {
		t.Fatal("execFormat produced no confirmation output")
	}

	entries, err := yblob.List(deps.Dev, deps.Cred)
	if err != nil {
		t.Fatalf("List after format: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("List() right after format = %+v, want empty", entries)
	}
}

func TestExecFormat_FlagsOverrideConfig(t *testing.T) {
	deps := newFormatTestDeps(t)
	o, _, _ := newIOCapture()

	if err := execFormat(o, deps, 4, 64, "82", false, ""); err != nil {
		t.Fatalf("execFormat: %v", err)
	}

	dump, err := yblob.Fsck(deps.Dev)
	if err != nil {
		t.Fatalf("Fsck: %v", err)
	}

	if len(dump) != 4 {
		t.Fatalf("Fsck() returned %d records, want 4", len(dump))
	}
}

func TestExecFormat_SubjectWithoutGenerateKeyFails(t *testing.T) {
	deps := newFormatTestDeps(t)
	o, _, _ := newIOCapture()

	err := execFormat(o, deps, 0, 0, "", false, "/CN=test")
	if !errors.Is(err, errSubjectWithoutGenerateKey) {
		t.Fatalf("execFormat() = %v, want errSubjectWithoutGenerateKey", err)
	}
}

func TestExecFormat_GenerateKeyOnUnsupportedDeviceFails(t *testing.T) {
	deps := newFormatTestDeps(t)
	deps.Dev = unsupportedKeyGenDevice{deps.Dev}

	o, _, _ := newIOCapture()

	err := execFormat(o, deps, 0, 0, "", true, "")
	if !errors.Is(err, yblob.ErrTransport) {
		t.Fatalf("execFormat() with a non-KeyGenerator device = %v, want ErrTransport", err)
	}
}

func TestExecFormat_GenerateKeySucceedsOnMock(t *testing.T) {
	deps := newFormatTestDeps(t)
	o, _, _ := newIOCapture()

	if err := execFormat(o, deps, 0, 0, "", true, "/CN=my-store/O=example"); err != nil {
		t.Fatalf("execFormat with --generate-key: %v", err)
	}
}

func TestExecFormat_InvalidSlot(t *testing.T) {
	deps := newFormatTestDeps(t)
	o, _, _ := newIOCapture()

	err := execFormat(o, deps, 0, 0, "not-hex", false, "")
	if err == nil {
		t.Fatal("execFormat() with an invalid --slot should fail")
	}
}

// unsupportedKeyGenDevice wraps a yblob.Device but deliberately does not
// implement yblob.KeyGenerator, for testing execFormat's optional-capability
// type assertion.
type unsupportedKeyGenDevice struct {
	yblob.Device
}
