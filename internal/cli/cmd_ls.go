package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

// LsCmd returns the `yb ls` command (§6.2 "list() → ordered by name of
// (name, size, encrypted?, mtime, chunk_count)").
func LsCmd() *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "ls",
		Short: "List blobs",
		Exec: func(_ context.Context, o *IO, deps *Deps, _ []string) error {
			return execLs(o, deps)
		},
	}
}

func execLs(o *IO, deps *Deps) error {
	entries, err := yblob.List(deps.Dev, deps.Cred)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	for _, e := range entries {
		enc := "-"
		if e.Encrypted {
			enc = "enc"
		}

		o.Printf("%-28s %8d %4s %s %3d chunks\n",
			e.Name, e.Size, enc, e.ModTime.Format("2006-01-02T15:04:05Z"), e.ChunkCount)
	}

	return nil
}
