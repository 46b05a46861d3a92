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

var errFetchNeedsName = errors.New("fetch: expected exactly one argument, the blob name")

// FetchCmd returns the `yb fetch` command (§6.2 "fetch(name) → payload |
// NotFound").
func FetchCmd() *Command {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	out := fs.StringP("out", "o", "-", "Write the payload to `file`, or '-' for stdout")

	return &Command{
		Flags: fs,
		Usage: "fetch <name> [-o <file>]",
		Short: "Fetch a blob's payload",
		Exec: func(_ context.Context, o *IO, deps *Deps, args []string) error {
			return execFetch(o, deps, *out, args)
		},
	}
}

func execFetch(o *IO, deps *Deps, outPath string, args []string) error {
	if len(args) != 1 {
		return errFetchNeedsName
	}

	name := args[0]

	cred := deps.Cred

	payload, err := yblob.FetchBlob(deps.Dev, name, cred)
	if errors.Is(err, yblob.ErrAuth) && cred.PIN == "" {
		pin, promptErr := readPIN("PIN: ", o.Err, deps.Stdin)
		if promptErr != nil {
			return fmt.Errorf("read PIN: %w", promptErr)
		}

		cred.PIN = pin
		payload, err = yblob.FetchBlob(deps.Dev, name, cred)
	}

	if err != nil {
		return fmt.Errorf("fetch %q: %w", name, err)
	}

	return writePayload(o.Out, outPath, payload)
}

func writePayload(stdout io.Writer, path string, payload []byte) error {
	if path == "-" {
		_, err := stdout.Write(payload)

		return err
	}

	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
