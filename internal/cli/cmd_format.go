package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

var errSubjectWithoutGenerateKey = errors.New("--subject requires --generate-key")

// FormatCmd returns the `yb format` command (§6.2 "format(object_count,
// object_size, key_slot, generate_key, subject)").
func FormatCmd() *Command {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	count := fs.Int("count", 0, "Number of records N, in [1, 255] (default: config format_object_count)")
	size := fs.Int("size", 0, "Record size in bytes, in [10, 3052] (default: config format_object_size)")
	slot := fs.String("slot", "", "PIV key slot to hold the store's ECC key, as hex (default: config key_slot)")
	generateKey := fs.Bool("generate-key", false, "Generate a fresh on-device key pair before formatting")
	subject := fs.String("subject", "", "RDN subject for the generated key, e.g. /CN=my-store/O=example")

	return &Command{
		Flags: fs,
		Usage: "format [flags]",
		Short: "Initialize an empty store on the device",
		Exec: func(_ context.Context, o *IO, deps *Deps, _ []string) error {
			return execFormat(o, deps, *count, *size, *slot, *generateKey, *subject)
		},
	}
}

func execFormat(o *IO, deps *Deps, count, size int, slotHex string, generateKey bool, subjectDN string) error {
	if subjectDN != "" && !generateKey {
		return errSubjectWithoutGenerateKey
	}

	geo := yblob.Geometry{
		Count:      deps.Config.FormatObjectCount,
		ObjectSize: deps.Config.FormatObjectSize,
		KeySlot:    deps.Config.KeySlot,
	}

	if count != 0 {
		geo.Count = count
	}

	if size != 0 {
		geo.ObjectSize = size
	}

	if slotHex != "" {
		s, err := parseSlot(slotHex)
		if err != nil {
			return err
		}

		geo.KeySlot = s
	}

	if subjectDN != "" {
		if _, err := parseSubject(subjectDN); err != nil {
			return err
		}
	}

	if generateKey {
		gen, ok := deps.Dev.(yblob.KeyGenerator)
		if !ok {
			return fmt.Errorf("device does not support on-device key generation: %w", yblob.ErrTransport)
		}

		if err := gen.GenerateKey(yblob.Slot(geo.KeySlot), subjectDN); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
	}

	// Format writes every record without per-call credentials, so a
	// management key given on the command line authenticates the session.
	if deps.Cred.ManagementKey != nil {
		if err := deps.Dev.AuthenticateManagement(*deps.Cred.ManagementKey); err != nil {
			return fmt.Errorf("authenticate management key: %w", err)
		}
	}

	if _, err := yblob.Format(deps.Dev, geo); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	o.Println("formatted", geo.Count, "records of", geo.ObjectSize, "bytes, key slot", fmt.Sprintf("%#x", geo.KeySlot))

	return nil
}
