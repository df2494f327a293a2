// Package cryptox hashes account passwords with Argon2id.
//
// Hashes are stored in the PHC string format, so parameters travel with the
// hash and can be raised later without breaking existing accounts:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt b64>$<key b64>
package cryptox

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/signupd/internal/common"
	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams matches the RFC 9106 second recommended option.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}

// Hasher turns plaintext passwords into encoded Argon2id hashes.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// DeriveKey runs Argon2id over password and salt.
func DeriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Hash returns the encoded hash of password with a fresh random salt.
func (h *Hasher) Hash(password []byte) (string, error) {
	salt := common.GenerateRandByteArray(h.params.SaltLen)
	key := DeriveKey(password, salt, h.params)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}
