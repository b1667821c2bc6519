package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"hash"
	"strings"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

const codeBytes = 10

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// CodeEngine derives confirmation codes from a user's current state. Codes
// are never stored: any change to the folded fields (id, username, email,
// is_active, last_login) invalidates every code issued before it.
//
// A code is bound to a time bucket of length step. It verifies during its own
// bucket and the buckets covering ttl after it. A code from the bucket after
// the current one is also accepted, so a server whose clock runs behind the
// issuer's still verifies it.
type CodeEngine struct {
	key  []byte
	ttl  time.Duration
	step time.Duration
	now  func() time.Time
}

// NewCodeEngine derives the confirmation-code subkey from secret. A zero step
// defaults to ttl.
func NewCodeEngine(secret []byte, ttl, step time.Duration, now func() time.Time) *CodeEngine {
	if step <= 0 {
		step = ttl
	}
	if step <= 0 {
		step = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &CodeEngine{key: DeriveKey(secret, PurposeConfirmationCode), ttl: ttl, step: step, now: now}
}

// Issue returns the code for u in the current bucket.
func (e *CodeEngine) Issue(u *models.User) string {
	return e.derive(u, e.bucket(e.now()))
}

// Verify reports whether code was issued for u's current state within the
// validity window. It never fails loudly.
func (e *CodeEngine) Verify(u *models.User, code string) bool {
	if u == nil {
		return false
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 0 {
		return false
	}

	current := e.bucket(e.now())
	back := int64((e.ttl + e.step - 1) / e.step)

	ok := 0
	for b := current + 1; b >= current-back; b-- {
		ok |= subtle.ConstantTimeCompare([]byte(e.derive(u, b)), []byte(code))
	}
	return ok == 1
}

func (e *CodeEngine) bucket(t time.Time) int64 {
	return t.UnixNano() / int64(e.step)
}

func (e *CodeEngine) derive(u *models.User, bucket int64) string {
	mac := hmac.New(sha256.New, e.key)

	writeInt(mac, bucket)
	writeInt(mac, u.ID)
	writeString(mac, u.Username)
	writeString(mac, u.Email)
	if u.IsActive {
		writeInt(mac, 1)
	} else {
		writeInt(mac, 0)
	}
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().UnixMicro()
	}
	writeInt(mac, lastLogin)

	return codeEncoding.EncodeToString(mac.Sum(nil)[:codeBytes])
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

// writeString length-prefixes s so adjacent fields cannot run together.
func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}
