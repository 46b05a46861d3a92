package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

var errStoreNeedsArg = errors.New("store: expected exactly one file argument, or '-' for stdin")

// StoreCmd returns the `yb store` command (§6.2 "store(name, payload,
// encrypted)").
func StoreCmd() *Command {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	name := fs.StringP("name", "n", "", "Blob name (required)")
	encrypted := fs.BoolP("encrypted", "e", false, "Encrypt the payload under the store's device key")

	return &Command{
		Flags: fs,
		Usage: "store -n <name> [-e] <file|->",
		Short: "Store a blob, reading its payload from a file or stdin",
		Exec: func(_ context.Context, o *IO, deps *Deps, args []string) error {
			return execStore(o, deps, *name, *encrypted, args)
		},
	}
}

func execStore(_ *IO, deps *Deps, name string, encrypted bool, args []string) error {
	if name == "" {
		return errors.New("--name is required")
	}

	if len(args) != 1 {
		return errStoreNeedsArg
	}

	payload, err := readPayload(deps.Stdin, args[0])
	if err != nil {
		return err
	}

	mode := yblob.Plaintext
	if encrypted {
		mode = yblob.Encrypted
	}

	if err := yblob.StoreBlob(deps.Dev, name, payload, mode, deps.Cred); err != nil {
		return fmt.Errorf("store %q: %w", name, err)
	}

	return nil
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}
