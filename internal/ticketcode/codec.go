// Package ticketcode signs and verifies the scannable ticket payload
// "<namespace>:<token>:<hex-hmac>".
//
// The payload format is external: changing it invalidates every issued,
// unredeemed ticket.
package ticketcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// DefaultNamespace identifies tickets issued by this service.
const DefaultNamespace = "eventhub"

const separator = ":"

var (
	ErrEmptyKey         = errors.New("ticketcode: signing key is empty")
	ErrInvalidNamespace = errors.New("ticketcode: namespace must be non-empty and must not contain ':'")
	ErrInvalidToken     = errors.New("ticketcode: token must be non-empty and must not contain ':'")
)

// Codec holds the process-wide signing key. It is immutable after New and
// safe for concurrent use.
type Codec struct {
	namespace string
	key       []byte
}

// Result is the outcome of Decode. Token is set only when Valid is true.
type Result struct {
	Valid bool   `json:"valid"`
	Token string `json:"token,omitempty"`
}

func New(namespace string, key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if namespace == "" || strings.Contains(namespace, separator) {
		return nil, ErrInvalidNamespace
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Codec{namespace: namespace, key: k}, nil
}

func (c *Codec) Namespace() string {
	return c.namespace
}

// Sign returns the full hex-encoded HMAC-SHA-256 of token.
func (c *Codec) Sign(token string) string {
	return hex.EncodeToString(c.mac(token))
}

func (c *Codec) mac(token string) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(token))
	return h.Sum(nil)
}

// Encode builds the payload for token. Tokens Decode could never accept
// are refused with ErrInvalidToken.
func (c *Codec) Encode(token string) (string, error) {
	if token == "" || strings.Contains(token, separator) {
		return "", ErrInvalidToken
	}
	return c.namespace + separator + token + separator + c.Sign(token), nil
}

// Decode verifies payload and returns the embedded token. Any malformed,
// foreign or tampered payload yields Result{Valid: false}.
func (c *Codec) Decode(payload string) Result {
	parts := strings.Split(payload, separator)
	if len(parts) != 3 {
		return Result{}
	}
	namespace, token, signature := parts[0], parts[1], parts[2]
	if namespace != c.namespace || token == "" {
		return Result{}
	}

	// Uppercase hex would decode to the same bytes; only the canonical
	// lowercase form is accepted so that any edit to the payload is rejected.
	if signature != strings.ToLower(signature) {
		return Result{}
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return Result{}
	}
	if !hmac.Equal(provided, c.mac(token)) {
		return Result{}
	}
	return Result{Valid: true, Token: token}
}
