package download

import (
	"encoding/hex"
	"hash"
	"strings"
)

// checksumVerifier accumulates a digest of every byte read from the
// response body and compares it against the expected hex checksum.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

// Verify finalizes the digest. Hex case is ignored.
func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if !strings.EqualFold(actual, v.expected) {
		return &IntegrityError{Expected: v.expected, Actual: actual}
	}

	return nil
}
