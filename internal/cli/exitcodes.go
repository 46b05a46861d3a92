package cli

import (
	"errors"

	"github.com/douzebis/yb/pkg/yblob"
)

// exitCodeFor maps an operation error to a process exit code (§6.4: "0
// success, non-zero on any NotFound, StoreFull, BadMagic, BadGeometry,
// ShortRecord, CryptoError, or transport failure"). The spec does not
// mandate which non-zero code per category, so this table assigns one
// each, stable across releases, so scripts can distinguish failure modes
// without parsing stderr.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, yblob.ErrNotFound):
		return 2
	case errors.Is(err, yblob.ErrStoreFull):
		return 3
	case errors.Is(err, yblob.ErrBadMagic), errors.Is(err, yblob.ErrBadGeometry), errors.Is(err, yblob.ErrShortRecord):
		return 4
	case errors.Is(err, yblob.ErrNameTooLong):
		return 5
	case errors.Is(err, yblob.ErrCrypto):
		return 6
	case errors.Is(err, yblob.ErrAuth):
		return 7
	case errors.Is(err, yblob.ErrTransport):
		return 8
	default:
		return 1
	}
}
