package lockfile

import (
	"crypto/subtle"
	"strings"

	"github.com/lockview/lockview/pkg/errors"
)

// Hash is a recorded artifact digest in "algorithm:hexdigest" form,
// e.g. "sha256:2e0e3…". The zero value means no hash was recorded.
type Hash string

// hexDigestLen maps accepted algorithms to their hex digest length.
// The lockfile format requires sha256; the longer SHA-2 variants are
// accepted for forward compatibility.
var hexDigestLen = map[string]int{
	"sha256": 64,
	"sha384": 96,
	"sha512": 128,
}

// Algorithm returns the digest algorithm name, or "" if the hash is
// empty or malformed.
func (h Hash) Algorithm() string {
	algo, _, ok := strings.Cut(string(h), ":")
	if !ok {
		return ""
	}
	return algo
}

// Digest returns the lowercase hex digest, or "" if absent.
func (h Hash) Digest() string {
	_, digest, ok := strings.Cut(string(h), ":")
	if !ok {
		return ""
	}
	return strings.ToLower(digest)
}

// Validate checks the hash's syntax: a known algorithm, a colon, and a
// hex digest of the right length.
func (h Hash) Validate() error {
	if h == "" {
		return errors.New(errors.ErrCodeInvalidHash, "empty hash")
	}
	algo, digest, ok := strings.Cut(string(h), ":")
	if !ok {
		return errors.New(errors.ErrCodeInvalidHash, "hash missing algorithm prefix: %q", string(h))
	}
	wantLen, known := hexDigestLen[algo]
	if !known {
		return errors.New(errors.ErrCodeInvalidHash, "unsupported hash algorithm: %q", algo)
	}
	if len(digest) != wantLen {
		return errors.New(errors.ErrCodeInvalidHash, "%s digest has %d hex chars, want %d", algo, len(digest), wantLen)
	}
	for _, c := range digest {
		if !isHex(byte(c)) {
			return errors.New(errors.ErrCodeInvalidHash, "non-hex character in digest: %q", string(h))
		}
	}
	return nil
}

// Matches reports whether the given lowercase hex digest equals the
// recorded one. The comparison is constant-time.
func (h Hash) Matches(hexDigest string) bool {
	recorded := h.Digest()
	if recorded == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(recorded), []byte(strings.ToLower(hexDigest))) == 1
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
