// yb-shell is an interactive REPL for exercising a yblob store without
// a real PIV token, backed by an in-memory or file-snapshotted mock
// device.
//
// Usage:
//
//	yb-shell                  Use a throwaway in-memory mock device
//	yb-shell <snapshot-file>  Use a file-backed mock device, created if absent
//
// Commands (in REPL):
//
//	format <count> <size>          Initialize an empty store
//	store <name> <text> [-e]       Store a blob (reads payload from args)
//	fetch <name>                   Fetch and print a blob's payload
//	remove <name>                  Remove a blob
//	ls                             List blobs
//	fsck                           Dump raw record state
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/douzebis/yb/internal/transport"
	"github.com/douzebis/yb/pkg/yblob"
)

const defaultKeySlot = yblob.Slot(0x9d)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var dev yblob.Device

	if len(os.Args) >= 2 {
		mf, err := transport.NewMockFile(os.Args[1], defaultKeySlot, "", [24]byte{})
		if err != nil {
			return fmt.Errorf("open %s: %w", os.Args[1], err)
		}

		dev = mf
	} else {
		m, err := transport.NewMock(defaultKeySlot, "", [24]byte{})
		if err != nil {
			return fmt.Errorf("create mock device: %w", err)
		}

		dev = m
	}

	// Both mock devices use the all-zero management key; authenticating
	// with it lets the REPL's format/store/remove writes through.
	if err := dev.AuthenticateManagement([24]byte{}); err != nil {
		return fmt.Errorf("authenticate mock device: %w", err)
	}

	repl := &REPL{dev: dev, cred: yblob.Credentials{}}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	dev   yblob.Device
	cred  yblob.Credentials
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".yb_shell_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("yb-shell - interactive yblob store (mock device)")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("yb-shell> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "format":
			r.cmdFormat(args)

		case "store":
			r.cmdStore(args)

		case "fetch":
			r.cmdFetch(args)

		case "remove", "rm":
			r.cmdRemove(args)

		case "ls", "list":
			r.cmdLs()

		case "fsck":
			r.cmdFsck()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil { //nolint:gosec
			_, _ = r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"format", "store", "fetch", "remove", "rm", "ls", "list", "fsck", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)

	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  format <count> <size>      Initialize an empty store")
	fmt.Println("  store <name> <text> [-e]   Store a blob, -e encrypts it")
	fmt.Println("  fetch <name>               Fetch and print a blob's payload")
	fmt.Println("  remove <name>              Remove a blob")
	fmt.Println("  ls                         List blobs")
	fmt.Println("  fsck                       Dump raw record state")
	fmt.Println("  help                       Show this help")
	fmt.Println("  exit / quit / q            Exit")
}

func (r *REPL) cmdFormat(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: format <count> <size>")

		return
	}

	count, err1 := strconv.Atoi(args[0])
	size, err2 := strconv.Atoi(args[1])

	if err1 != nil || err2 != nil {
		fmt.Println("count and size must be integers")

		return
	}

	geo := yblob.Geometry{Count: count, ObjectSize: size, KeySlot: byte(defaultKeySlot)}

	if _, err := yblob.Format(r.dev, geo); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: formatted %d records of %d bytes\n", count, size)
}

func (r *REPL) cmdStore(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: store <name> <text> [-e]")

		return
	}

	name := args[0]
	encrypted := false
	textParts := args[1:]

	if len(textParts) > 0 && textParts[len(textParts)-1] == "-e" {
		encrypted = true
		textParts = textParts[:len(textParts)-1]
	}

	payload := []byte(strings.Join(textParts, " "))

	mode := yblob.Plaintext
	if encrypted {
		mode = yblob.Encrypted
	}

	if err := yblob.StoreBlob(r.dev, name, payload, mode, r.cred); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: stored %q (%d bytes, encrypted=%v)\n", name, len(payload), encrypted)
}

func (r *REPL) cmdFetch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fetch <name>")

		return
	}

	payload, err := yblob.FetchBlob(r.dev, args[0], r.cred)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("%s\n", payload)
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: remove <name>")

		return
	}

	removed, err := yblob.RemoveBlob(r.dev, args[0], r.cred)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if removed {
		fmt.Printf("OK: removed %q\n", args[0])
	} else {
		fmt.Printf("OK: %q did not exist\n", args[0])
	}
}

func (r *REPL) cmdLs() {
	entries, err := yblob.List(r.dev, r.cred)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if len(entries) == 0 {
		fmt.Println("(empty)")

		return
	}

	for _, e := range entries {
		fmt.Printf("%-28s %8d bytes  encrypted=%-5v  chunks=%d\n", e.Name, e.Size, e.Encrypted, e.ChunkCount)
	}
}

func (r *REPL) cmdFsck() {
	dump, err := yblob.Fsck(r.dev)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for _, rec := range dump {
		if rec.Free {
			fmt.Printf("%3d  free\n", rec.Index)

			continue
		}

		fmt.Printf("%3d  age=%d chunk_pos=%d next=%d name=%q\n", rec.Index, rec.Age, rec.ChunkPos, rec.NextIndex, rec.Name)
	}
}
