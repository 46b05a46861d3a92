package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/internal/transport"
	"github.com/douzebis/yb/pkg/yblob"
)

// Deps bundles everything a [Command.Exec] needs besides its own flags:
// the resolved configuration and an already-opened device and
// credentials.
type Deps struct {
	Config Config
	Dev    yblob.Device
	Cred   yblob.Credentials

	// Stdin is the process's standard input, for commands that need to
	// prompt for a PIN lazily (e.g. fetching an encrypted blob with no
	// --pin given).
	Stdin io.Reader
}

// Run is yb's entry point. Returns the process exit code.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	globalFlags := flag.NewFlagSet("yb", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagMock := globalFlags.Bool("mock", false, "Use a throwaway in-memory mock device")
	flagMockFile := globalFlags.String("mock-file", "", "Use a file-backed mock device snapshotted at `path`")
	flagReader := globalFlags.String("reader", "", "Connect to the reader whose name contains `substr`")
	flagSlot := globalFlags.String("slot", "", "Override the store's PIV key slot, as hex (e.g. 9d)")
	flagPIN := globalFlags.String("pin", "", "Cardholder PIN (prompted if omitted and a command needs it)")
	flagManagementKey := globalFlags.String("management-key", "", "Management key, 48 hex chars (24 bytes)")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	cfg, _, err := LoadConfig(env["PWD"], *flagConfig)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if *flagSlot != "" {
		slot, err := parseSlot(*flagSlot)
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		cfg.KeySlot = slot
	}

	commands := allCommands()

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(out, commands)

		return 0
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	var dev yblob.Device

	if cmdName != "list-readers" && cmdName != "print-config" {
		dev, err = openDevice(*flagMock, *flagMockFile, *flagReader, cfg)
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}
	}

	cred, err := resolveCredentials(*flagPIN, *flagManagementKey)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	deps := &Deps{Config: cfg, Dev: dev, Cred: cred, Stdin: stdin}
	cmdIO := NewIO(out, errOut)

	return cmd.Run(context.Background(), cmdIO, deps, commandAndArgs[1:])
}

// openDevice resolves --mock/--mock-file/--reader into a [yblob.Device].
// A real PC/SC reader connection is out of scope (spec.md §1's Non-goals);
// --reader exists so the flag surface matches what a full build would
// offer, but it always reports that limitation.
func openDevice(mock bool, mockFile, reader string, cfg Config) (yblob.Device, error) {
	switch {
	case mockFile != "":
		return transport.NewMockFile(mockFile, yblob.Slot(cfg.KeySlot), "", [24]byte{})
	case mock:
		return transport.NewMock(yblob.Slot(cfg.KeySlot), "", [24]byte{})
	default:
		name := reader
		if name == "" {
			name = cfg.Reader
		}

		return nil, fmt.Errorf("no PC/SC transport is built into this binary (pass --mock or --mock-file); requested reader %q", name)
	}
}

// resolveCredentials builds the credentials passed to every command from
// flags alone. A missing PIN is not prompted for here; the commands that
// actually need one (fetch of an encrypted blob, self-test) prompt for
// it lazily via [readPIN] so that commands never touching encryption are
// never interrupted for one.
func resolveCredentials(pin, managementKeyHex string) (yblob.Credentials, error) {
	cred := yblob.Credentials{PIN: pin}

	if managementKeyHex != "" {
		raw, err := hex.DecodeString(managementKeyHex)
		if err != nil || len(raw) != 24 {
			return yblob.Credentials{}, fmt.Errorf("--management-key must be 48 hex characters (24 bytes)")
		}

		var key [24]byte
		copy(key[:], raw)
		cred.ManagementKey = &key
	}

	return cred, nil
}

func allCommands() []*Command {
	return []*Command{
		FormatCmd(),
		StoreCmd(),
		FetchCmd(),
		RemoveCmd(),
		LsCmd(),
		FsckCmd(),
		ListReadersCmd(),
		SelfTestCmd(),
		PrintConfigCmd(),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help                 Show help
  -c, --config <file>        Use specified config file
  --mock                     Use a throwaway in-memory mock device
  --mock-file <path>         Use a file-backed mock device snapshotted at path
  --reader <substr>          Connect to the reader whose name contains substr
  --slot <hex>               Override the store's PIV key slot
  --pin <pin>                Cardholder PIN
  --management-key <hex>     Management key, 48 hex chars`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: yb [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "yb - named blob storage on a PIV security token")
	fprintln(w)
	fprintln(w, "Usage: yb [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
