package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	timeCost   uint32 = 1
	memoryCost uint32 = 64 * 1024
	threads    uint8  = 4
	keyLength  uint32 = 32
	saltLength        = 16
)

// Hash returns an encoded Argon2id hash of the password.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, threads, keyLength)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memoryCost, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the password matches the encoded hash. The
// cost parameters come from the hash itself, so older hashes keep
// verifying after a parameter bump.
func Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return false
	}

	m, t, p, ok := parseParams(parts[3])
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	check := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, check) == 1
}

func parseParams(raw string) (memory, time uint32, parallelism uint8, ok bool) {
	fields := strings.Split(raw, ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	for _, field := range fields {
		name, value, found := strings.Cut(field, "=")
		if !found {
			return 0, 0, 0, false
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return 0, 0, 0, false
			}
			memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return 0, 0, 0, false
			}
			time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return 0, 0, 0, false
			}
			parallelism = uint8(v)
		default:
			return 0, 0, 0, false
		}
	}
	return memory, time, parallelism, true
}
