package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/douzebis/yb/pkg/yblob"
)

// FsckCmd returns the `yb fsck` command (§6.2 "fsck() → full dump of all
// N records"). Unlike every other command, fsck deliberately bypasses
// [yblob.Sanitize] (via [yblob.Fsck]), so it shows the raw on-device
// state a sanitizing load would otherwise silently repair.
func FsckCmd() *Command {
	fs := flag.NewFlagSet("fsck", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "fsck",
		Short: "Dump the raw decoded state of every record",
		Exec: func(_ context.Context, o *IO, deps *Deps, _ []string) error {
			return execFsck(o, deps)
		},
	}
}

func execFsck(o *IO, deps *Deps) error {
	dump, err := yblob.Fsck(deps.Dev)
	if err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	for _, rec := range dump {
		if rec.Free {
			o.Printf("%3d  free\n", rec.Index)

			continue
		}

		tail := ""
		if rec.IsTail {
			tail = " tail"
		}

		if rec.ChunkPos == 0 {
			o.Printf("%3d  age=%d head name=%q blob_size=%d enc_slot=%#x unenc_size=%d next=%d%s\n",
				rec.Index, rec.Age, rec.Name, rec.BlobSize, rec.EncSlot, rec.UnencSize, rec.NextIndex, tail)

			continue
		}

		o.Printf("%3d  age=%d chunk_pos=%d next=%d%s\n", rec.Index, rec.Age, rec.ChunkPos, rec.NextIndex, tail)
	}

	return nil
}
