package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the `yb print-config` command: the resolved
// configuration (defaults, then global, then project file, then flags
// already applied by [Run]) as JSON, for debugging config precedence.
func PrintConfigCmd() *Command {
	fs := flag.NewFlagSet("print-config", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "print-config",
		Short: "Print the resolved configuration as JSON",
		Exec: func(_ context.Context, o *IO, deps *Deps, _ []string) error {
			out, err := FormatConfig(deps.Config)
			if err != nil {
				return fmt.Errorf("print-config: %w", err)
			}

			o.Println(out)

			return nil
		},
	}
}
