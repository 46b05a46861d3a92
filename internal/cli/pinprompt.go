package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// readPIN reads a line from in without echoing it, if in is an *os.File
// connected to a terminal; otherwise (piped input, tests) it falls back
// to a plain line read. Used for the cardholder PIN when it was not
// supplied on the command line.
func readPIN(prompt string, out io.Writer, in io.Reader) (string, error) {
	fmt.Fprint(out, prompt) //nolint:errcheck

	f, ok := in.(*os.File)
	if !ok {
		line, readErr := bufio.NewReader(in).ReadString('\n')

		return trimNewline(line), readErr
	}

	fd := int(f.Fd())

	original, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		// Not a terminal (piped input, e.g. in tests): read a plain line.
		line, readErr := bufio.NewReader(in).ReadString('\n')

		return trimNewline(line), readErr
	}

	raw := *original
	raw.Lflag &^= unix.ECHO
	raw.Lflag |= unix.ICANON

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return "", fmt.Errorf("enter raw mode: %w", err)
	}

	defer func() {
		_ = unix.IoctlSetTermios(fd, ioctlSetTermios, original)
		fmt.Fprintln(out) //nolint:errcheck
	}()

	line, err := bufio.NewReader(in).ReadString('\n')

	return trimNewline(line), err
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}
