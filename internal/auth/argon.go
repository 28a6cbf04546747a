package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// maxPasswordLength bounds hashing cost for absurdly long inputs.
const maxPasswordLength = 1024

// Argon2Params are the cost parameters of an argon2id hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultArgon2Params is what HashPassword uses for new hashes.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

var errMalformedHash = errors.New("malformed argon2id hash")

// HashPassword hashes password with DefaultArgon2Params and returns the PHC
// string that goes in ADMIN_PASSWORD_HASH:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func HashPassword(password string) (string, error) {
	return hashWith(DefaultArgon2Params, password)
}

func hashWith(p Argon2Params, password string) (string, error) {
	switch {
	case password == "":
		return "", errors.New("password cannot be empty")
	case len(password) > maxPasswordLength:
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches encodedHash.
// A malformed hash never matches.
func VerifyPassword(encodedHash, password string) bool {
	if len(password) > maxPasswordLength {
		return false
	}

	p, salt, key, err := parseHash(encodedHash)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// NeedsRehash reports whether encodedHash was made with weaker parameters
// than DefaultArgon2Params, or cannot be parsed at all.
func NeedsRehash(encodedHash string) bool {
	p, _, _, err := parseHash(encodedHash)
	if err != nil {
		return true
	}
	d := DefaultArgon2Params
	return p.Memory < d.Memory || p.Iterations < d.Iterations || p.KeyLength < d.KeyLength
}

func parseHash(encoded string) (p Argon2Params, salt, key []byte, err error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", errMalformedHash, fields[2])
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: parameters %q", errMalformedHash, fields[3])
	}

	b64 := base64.RawStdEncoding
	if salt, err = b64.DecodeString(fields[4]); err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	if key, err = b64.DecodeString(fields[5]); err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", errMalformedHash, err)
	}
	p.SaltLength = len(salt)
	//nolint:gosec // key length is at most a few dozen bytes
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
