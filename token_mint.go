package bearer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

// DefaultTokenByteLength is the entropy pulled for each minted token value
const DefaultTokenByteLength = 32

// mintMaxRetries bounds retries on entropy failures: they are expected to be
// transient but must not loop forever.
const mintMaxRetries = 5

// TokenMinter issues opaque bearer token values: random bytes run through a
// fixed digest and encoded as a printable string. Values carry no claims; the
// store is the only source of truth about what a token means.
type TokenMinter struct {
	// ByteLength is the number of random bytes per token. Zero uses the default.
	ByteLength int
	// Rand is the entropy source. Nil uses crypto/rand.
	Rand io.Reader
}

// NewTokenMinter returns a minter with default entropy settings
func NewTokenMinter() *TokenMinter {
	return &TokenMinter{
		ByteLength: DefaultTokenByteLength,
		Rand:       rand.Reader,
	}
}

// Mint generates a new token value
func (m *TokenMinter) Mint() (string, error) {
	length := m.ByteLength
	if length <= 0 {
		length = DefaultTokenByteLength
	}

	source := m.Rand
	if source == nil {
		source = rand.Reader
	}

	var lastErr error
	for attempt := 0; attempt < mintMaxRetries; attempt++ {
		buf := make([]byte, length)
		if _, err := io.ReadFull(source, buf); err != nil {
			lastErr = err
			continue
		}

		sum := sha256.Sum256(buf)
		return base64.StdEncoding.EncodeToString(sum[:]), nil
	}

	return "", ServerError(lastErr, "unable to generate access token")
}
