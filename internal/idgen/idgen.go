// Package idgen generates the prefixed, sortable string IDs used for
// entities such as User, Board, and FeedbackItem (e.g. "usr_06...").
// IDs are time-ordered (millisecond timestamp prefix) so they sort the same
// way their creation order does, without a separate created_at index.
package idgen

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// New generates a prefixed, lexicographically time-sortable ID: a 48-bit
// millisecond timestamp followed by 80 bits of randomness, encoded with the
// order-preserving base32hex alphabet.
func New(prefix string) string {
	var buf [16]byte

	ms := uint64(time.Now().UnixMilli())
	buf[0] = byte(ms >> 40)
	buf[1] = byte(ms >> 32)
	buf[2] = byte(ms >> 24)
	buf[3] = byte(ms >> 16)
	buf[4] = byte(ms >> 8)
	buf[5] = byte(ms)

	if _, err := rand.Read(buf[6:]); err != nil {
		panic("idgen: reading random bytes: " + err.Error())
	}

	encoded := strings.ToLower(encoding.EncodeToString(buf[:]))
	return fmt.Sprintf("%s_%s", prefix, encoded)
}

// Prefixes for each entity kind carrying a prefixed ID.
const (
	PrefixUser           = "usr"
	PrefixSession        = "ses"
	PrefixBoard          = "brd"
	PrefixEndUser        = "eu"
	PrefixFeedbackItem   = "fb"
	PrefixVote           = "vt"
	PrefixComment        = "cm"
	PrefixTeamMembership = "tm"
	PrefixInvitation     = "inv"
	PrefixTheme          = "thm"
	PrefixDuplicateSugg  = "dup"
	PrefixAIJob          = "job"
	PrefixAPIKey         = "key"
)
