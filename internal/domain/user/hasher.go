package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultHashIterations is tuned for per-request server CPU, not for the
	// client-side vault key, which uses its own much higher count.
	DefaultHashIterations = 100000

	pbkdf2Tag    = "pbkdf2_sha256"
	argon2Tag    = "argon2id"
	saltLength   = 16
	digestLength = 32

	// Upper bounds on cost parameters read back from stored hashes.
	maxIterations   = 10_000_000
	maxArgon2Memory = 1 << 20 // KiB
	maxArgon2Time   = 16
)

// Hasher produces and checks self-describing password hashes of the form
// pbkdf2_sha256$<iterations>$<b64 salt>$<b64 digest>.
// Verify also accepts argon2id and bcrypt hashes so older rows keep working.
type Hasher struct {
	iterations int
}

func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultHashIterations
	}
	return &Hasher{iterations: iterations}
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := pbkdf2.Key([]byte(password), salt, h.iterations, digestLength, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		pbkdf2Tag,
		h.iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	), nil
}

// Verify reports whether password matches encoded. Unknown or malformed
// formats are a mismatch.
func (h *Hasher) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, pbkdf2Tag+"$"):
		return verifyPBKDF2(password, encoded)
	case strings.HasPrefix(encoded, argon2Tag+"$"):
		return verifyArgon2id(password, encoded)
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

// NeedsRehash is true for any hash not produced by the current policy.
func (h *Hasher) NeedsRehash(encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Tag {
		return true
	}
	n, err := strconv.Atoi(parts[1])
	return err != nil || n != h.iterations
}

func verifyPBKDF2(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// argon2id$m=<M>,t=<T>,p=<P>$<b64 salt>$<b64 key>, raw std base64.
func verifyArgon2id(password, encoded string) bool {
	parts := strings.Split(strings.TrimPrefix(encoded, argon2Tag+"$"), "$")
	if len(parts) != 3 {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	if m == 0 || m > maxArgon2Memory || t == 0 || t > maxArgon2Time || p == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
