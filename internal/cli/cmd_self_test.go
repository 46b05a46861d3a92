package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

var errSelfTestNeedsYes = errors.New("self-test: formats the device and destroys all existing blobs; pass --yes to confirm")

// SelfTestCmd returns the `yb self-test` command, kept from
// original_source/src/yb/self_test.py / cli_self_test.py. The original
// drives a real YubiKey through a large pseudo-random operation mix via
// subprocess calls to its own CLI; this keeps the same intent (format a
// scratch store, round-trip a run of store/fetch/remove cycles covering
// both encryption modes, fail loudly on the first mismatch) expressed
// directly against the public pkg/yblob API, so it also serves as a
// runnable example of that API.
func SelfTestCmd() *Command {
	fs := flag.NewFlagSet("self-test", flag.ContinueOnError)
	count := fs.IntP("count", "n", 20, "Number of store/fetch/remove cycles to perform")
	yes := fs.Bool("yes", false, "Confirm formatting the device and destroying existing data")

	return &Command{
		Flags: fs,
		Usage: "self-test [-n <count>] --yes",
		Short: "Format a scratch store and round-trip test operations through it",
		Exec: func(_ context.Context, o *IO, deps *Deps, _ []string) error {
			return execSelfTest(o, deps, *count, *yes)
		},
	}
}

func execSelfTest(o *IO, deps *Deps, count int, yes bool) error {
	if !yes {
		return errSelfTestNeedsYes
	}

	if count < 1 {
		return errors.New("--count must be at least 1")
	}

	geo := yblob.Geometry{Count: 8, ObjectSize: 256, KeySlot: deps.Config.KeySlot}

	if _, err := yblob.Format(deps.Dev, geo); err != nil {
		return fmt.Errorf("self-test: format scratch store: %w", err)
	}

	cred := deps.Cred
	syncEveryWrite := deps.Config.syncEveryWrite()

	s, err := yblob.Open(deps.Dev)
	if err != nil {
		return fmt.Errorf("self-test: open scratch store: %w", err)
	}

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("self-test-%d", i)
		payload := []byte(fmt.Sprintf("self-test payload #%d", i))

		mode := yblob.Plaintext
		if i%2 == 1 {
			mode = yblob.Encrypted
		}

		if err := s.StoreBlob(name, payload, mode, cred); err != nil {
			return fmt.Errorf("self-test: store %q (op %d): %w", name, i, syncOnFailure(s, cred, err))
		}

		if syncEveryWrite {
			if err := s.Sync(cred); err != nil {
				return fmt.Errorf("self-test: sync after store %q (op %d): %w", name, i, err)
			}
		}

		got, err := s.FetchBlob(name, cred)
		if errors.Is(err, yblob.ErrAuth) && cred.PIN == "" {
			pin, promptErr := readPIN("PIN: ", o.Out, deps.Stdin)
			if promptErr != nil {
				return fmt.Errorf("self-test: read PIN: %w", promptErr)
			}

			cred.PIN = pin
			got, err = s.FetchBlob(name, cred)
		}

		if err != nil {
			return fmt.Errorf("self-test: fetch %q (op %d): %w", name, i, syncOnFailure(s, cred, err))
		}

		if !bytes.Equal(got, payload) {
			return fmt.Errorf("self-test: round-trip mismatch for %q (op %d): got %q, want %q", name, i, got, payload)
		}

		removed, err := s.RemoveBlob(name, cred)
		if err != nil {
			return fmt.Errorf("self-test: remove %q (op %d): %w", name, i, syncOnFailure(s, cred, err))
		}

		if !removed {
			return fmt.Errorf("self-test: remove %q (op %d) reported not found", name, i)
		}

		if syncEveryWrite {
			if err := s.Sync(cred); err != nil {
				return fmt.Errorf("self-test: sync after remove %q (op %d): %w", name, i, err)
			}
		}
	}

	if err := s.Sync(cred); err != nil {
		return fmt.Errorf("self-test: final sync: %w", err)
	}

	entries := s.List()
	if len(entries) != 0 {
		return fmt.Errorf("self-test: %d blobs left over after cleanup", len(entries))
	}

	o.Println("self-test passed:", count, "operations, 0 failures")

	return nil
}

// syncOnFailure flushes whatever s got done before opErr was hit, so a
// mid-run failure under --sync-every-write=false doesn't also discard
// cycles that already completed. The sync error is swallowed in favor of
// opErr, which is always the more actionable diagnostic for the caller.
func syncOnFailure(s *yblob.Store, cred yblob.Credentials, opErr error) error {
	_ = s.Sync(cred)

	return opErr
}
