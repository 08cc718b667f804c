package cds

import (
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const seededReaderInfo = "CDS94_SEEDED_READER_V1"

// SeededReader is a deterministic ChaCha20 keystream usable as a curve's
// randomness source. Reads are serialised, so concurrent callers always get
// disjoint parts of the stream.
type SeededReader struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

// NewSeededReader derives a ChaCha20 key and nonce from seed with HKDF-SHA256.
// Two readers built from the same seed produce the same stream.
func NewSeededReader(seed []byte) (*SeededReader, error) {
	material := make([]byte, chacha20.KeySize+chacha20.NonceSize)
	defer ZeroizeBytes(material)

	kdf := hkdf.New(sha256.New, seed, nil, []byte(seededReaderInfo))
	if _, err := io.ReadFull(kdf, material); err != nil {
		return nil, ErrRandomnessGeneration.WithCause(err)
	}

	cipher, err := chacha20.NewUnauthenticatedCipher(material[:chacha20.KeySize], material[chacha20.KeySize:])
	if err != nil {
		return nil, ErrRandomnessGeneration.WithCause(err)
	}
	return &SeededReader{cipher: cipher}, nil
}

// Read fills p with keystream bytes. It never fails.
func (r *SeededReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ZeroizeBytes(p)
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
