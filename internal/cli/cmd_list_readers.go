package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/internal/transport"
)

// ListReadersCmd returns the `yb list-readers` command, kept from
// original_source/src/yb/yubikey_selector.py (not part of spec.md's
// distilled operation list). It enumerates connected devices without
// requiring one be selected via --mock/--mock-file/--reader first.
func ListReadersCmd() *Command {
	fs := flag.NewFlagSet("list-readers", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "list-readers",
		Short: "List connected devices",
		Exec: func(_ context.Context, o *IO, _ *Deps, _ []string) error {
			devices, err := transport.ListDevices()
			if err != nil {
				return fmt.Errorf("list readers: %w", err)
			}

			for _, d := range devices {
				o.Println(d.Name)
			}

			return nil
		},
	}
}
