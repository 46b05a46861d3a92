package cli

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// parseSlot decodes a one-byte hex PIV slot ID, e.g. "9d" or "0x9d".
func parseSlot(s string) (byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 1 {
		return 0, fmt.Errorf("slot %q: must be exactly one hex byte", s)
	}

	return raw[0], nil
}
