package download

import (
	"crypto/sha1"
	"errors"
	"hash"
)

// Option configures a single [Handle] call.
type Option func(*settings) error

type settings struct {
	verifier     *checksumVerifier
	progress     bool
	skipExisting bool
}

func applyOptions(optFns []Option) (settings, error) {
	var s settings
	for _, opt := range optFns {
		if err := opt(&s); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}

// WithChecksum verifies the body against expected, the hex digest of a
// hash from newHash (e.g. sha256.New). Hex case is ignored. A mismatch
// fails with an [*IntegrityError] and the destination is not touched.
//
// Every download the option is applied to gets its own hash, so one
// Option may be shared between calls.
func WithChecksum(newHash func() hash.Hash, expected string) Option {
	return func(s *settings) error {
		switch {
		case newHash == nil:
			return errors.New("checksum hash constructor must not be nil")
		case expected == "":
			return errors.New("expected checksum must not be empty")
		}

		h := newHash()
		if h == nil {
			return errors.New("checksum hash constructor returned nil")
		}

		s.verifier = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithSHA1 is [WithChecksum] using SHA-1, the digest published for
// plugin and update bundles.
func WithSHA1(expected string) Option {
	return WithChecksum(sha1.New, expected)
}

// WithProgress logs the byte count at most once per second, and once
// more when the announced length has been reached.
func WithProgress() Option {
	return func(s *settings) error {
		s.progress = true
		return nil
	}
}

// WithSkipExisting leaves an existing destination as is and reports
// success without reading the body.
func WithSkipExisting() Option {
	return func(s *settings) error {
		s.skipExisting = true
		return nil
	}
}
