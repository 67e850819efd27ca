package users

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ArgonParams is the argon2id cost a Store hashes new passwords with.
// Stored digests carry their own cost, so changing it only affects
// accounts added afterwards.
type ArgonParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

var DefaultArgon = ArgonParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLen:     16,
	KeyLen:      32,
}

var ErrInvalidHash = errors.New("invalid password hash")

const digestPrefix = "argon2id$"

// digest is a decoded password hash:
// argon2id$m=<M>,t=<T>,p=<P>$<b64 salt>$<b64 key>.
type digest struct {
	memory, time uint32
	threads      uint8
	salt, key    []byte
}

func (d digest) String() string {
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s", digestPrefix,
		d.memory, d.time, d.threads,
		base64.RawStdEncoding.EncodeToString(d.salt),
		base64.RawStdEncoding.EncodeToString(d.key),
	)
}

func (d digest) derive(password string) []byte {
	return argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.threads, uint32(len(d.key)))
}

func parseDigest(encoded string) (digest, error) {
	rest, ok := strings.CutPrefix(encoded, digestPrefix)
	if !ok {
		return digest{}, ErrInvalidHash
	}
	parts := strings.Split(rest, "$")
	if len(parts) != 3 {
		return digest{}, ErrInvalidHash
	}

	var d digest
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &d.memory, &d.time, &d.threads); err != nil {
		return digest{}, ErrInvalidHash
	}
	// argon2 panics on a zero cost
	if d.memory == 0 || d.time == 0 || d.threads == 0 {
		return digest{}, ErrInvalidHash
	}
	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[1]); err != nil {
		return digest{}, ErrInvalidHash
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[2]); err != nil || len(d.key) == 0 {
		return digest{}, ErrInvalidHash
	}
	return d, nil
}

// hash derives a fresh salted digest of password.
func (p ArgonParams) hash(password string) (string, error) {
	d := digest{memory: p.Memory, time: p.Time, threads: p.Parallelism, salt: make([]byte, p.SaltLen)}
	if _, err := rand.Read(d.salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	d.key = argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.threads, p.KeyLen)
	return d.String(), nil
}

// matches recomputes the digest with the salt and cost stored in encoded
// and compares in constant time.
func matches(password, encoded string) (bool, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(d.derive(password), d.key) == 1, nil
}
