// Package auth implements the offline-mode identity rules: username
// validation and deterministic UUID derivation (spec.md §4.3/§4.6).
package auth

import (
	"crypto/md5"
	"regexp"

	"github.com/google/uuid"

	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// ValidateUsername enforces spec.md §4.6's Login Start name rule.
func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return protoerr.Protocol("invalid username %q: must match ^[A-Za-z0-9_]{3,16}$", name)
	}
	return nil
}

// OfflineUUID derives uuid = md5_v3("OfflinePlayer:" + name) with the
// version bits set to 3 and variant bits set to 10, per spec.md §4.3.
//
// This is plain MD5 of the literal string, not google/uuid's NewMD5 (which
// additionally prepends a 16-byte namespace before hashing per RFC 4122 —
// the vanilla client's offline derivation has no namespace prefix). md5 is
// computed with the standard library and the version/variant bits are set
// by hand; google/uuid supplies only the UUID type carried elsewhere.
func OfflineUUID(name string) wire.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // variant 10
	u := uuid.UUID(sum)
	return wire.FromGoogleUUID(u)
}
