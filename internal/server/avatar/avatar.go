// Package avatar derives default avatar URLs for accounts that did not
// upload one.
package avatar

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2s"
)

// DefaultSize is the pixel size requested for generated avatars.
const DefaultSize = 80

const baseURL = "https://avatars.dicebear.com/api/bottts/"

// URL returns a generated avatar for email. The same address always yields
// the same picture; the address itself is not revealed.
func URL(email string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	sum := blake2s.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("%s%s.svg?size=%d", baseURL, base64.RawURLEncoding.EncodeToString(sum[:]), size)
}
