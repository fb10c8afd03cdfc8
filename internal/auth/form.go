// Package auth signs the token embedded in the run button form.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadToken   = errors.New("bad token")
	ErrBadSig     = errors.New("invalid signature")
	ErrExpired    = errors.New("expired")
	ErrBadPayload = errors.New("bad payload")
)

// FormToken binds a POST to the session that rendered the form.
type FormToken struct {
	Secret []byte
	TTL    time.Duration
	// Now is used for expiry checks; time.Now when nil
	Now func() time.Time
}

// NewSecret returns 32 random bytes for when no secret is configured
func NewSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}

func (f FormToken) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Issue signs a token for session that expires after TTL
func (f FormToken) Issue(session string) string {
	ttl := f.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return f.Sign(session, f.now().Add(ttl))
}

// Sign: raw URL-safe base64, safe in form values
func (f FormToken) Sign(session string, exp time.Time) string {
	msg := session + "|" + strconv.FormatInt(exp.Unix(), 10)
	payload := base64.RawURLEncoding.EncodeToString([]byte(msg))
	return payload + "." + base64.RawURLEncoding.EncodeToString(f.mac([]byte(msg)))
}

func (f FormToken) mac(msg []byte) []byte {
	m := hmac.New(sha256.New, f.Secret)
	m.Write(msg)
	return m.Sum(nil)
}

// Verify checks token was signed for session and has not expired.
func (f FormToken) Verify(token, session string) error {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return ErrBadToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ErrBadToken
	}
	gotSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return ErrBadToken
	}
	if !hmac.Equal(gotSig, f.mac(raw)) {
		return ErrBadSig
	}

	bound, ts, ok := strings.Cut(string(raw), "|")
	if !ok {
		return ErrBadPayload
	}
	exp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || bound == "" {
		return ErrBadPayload
	}
	if bound != session {
		return ErrBadPayload
	}
	if f.now().After(time.Unix(exp, 0)) {
		return ErrExpired
	}
	return nil
}
