package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

var errRemoveNeedsName = errors.New("remove: expected exactly one argument, the blob name")

// RemoveCmd returns the `yb remove` command (§6.2 "remove(name) →
// bool").
func RemoveCmd() *Command {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "remove <name>",
		Short: "Remove a blob",
		Exec: func(_ context.Context, o *IO, deps *Deps, args []string) error {
			return execRemove(o, deps, args)
		},
	}
}

func execRemove(o *IO, deps *Deps, args []string) error {
	if len(args) != 1 {
		return errRemoveNeedsName
	}

	name := args[0]

	removed, err := yblob.RemoveBlob(deps.Dev, name, deps.Cred)
	if err != nil {
		return fmt.Errorf("remove %q: %w", name, err)
	}

	if !removed {
		return fmt.Errorf("blob %q: %w", name, yblob.ErrNotFound)
	}

	o.Println("removed", name)

	return nil
}
