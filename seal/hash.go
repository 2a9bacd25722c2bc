package seal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hash algorithms a Seal may name.
const (
	HashSHA256  = "sha256"
	HashSHA3    = "sha3-256"
	HashBlake2b = "blake2b-256"
)

// DefaultHash is used when no algorithm is configured.
const DefaultHash = HashSHA256

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case HashSHA256, "":
		return sha256.New(), nil
	case HashSHA3:
		return sha3.New256(), nil
	case HashBlake2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgo, algorithm)
	}
}

// SupportedHash reports whether algorithm can be used to seal.
func SupportedHash(algorithm string) bool {
	_, err := newHash(algorithm)
	return err == nil
}

func digest(algorithm string, data []byte) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// combine hashes (name, fieldHash) pairs in the given order, each component
// length-prefixed with an 8-byte big-endian length.
func combine(algorithm string, fields []string, fieldHashes map[string]string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	writeField := func(data []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		h.Write(length[:])
		h.Write(data)
	}
	for _, name := range fields {
		writeField([]byte(name))
		writeField([]byte(fieldHashes[name]))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
