package translation

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"horse.fit/phrasebook/internal/globaltime"
)

// Credentials identify the application to the remote translation provider.
type Credentials struct {
	AppID  string
	Secret string
}

// Present reports whether both halves of the credential pair are set.
func (c Credentials) Present() bool {
	return strings.TrimSpace(c.AppID) != "" && strings.TrimSpace(c.Secret) != ""
}

// SignedRequest is the provider request payload. AppID, Salt and Sign are
// empty when the request is sent unsigned.
type SignedRequest struct {
	Query string
	From  string
	To    string
	AppID string
	Salt  string
	Sign  string
}

// Signed reports whether the request carries an authentication signature.
func (r *SignedRequest) Signed() bool {
	return r != nil && r.Sign != ""
}

// Sign computes the provider authentication signature. The concatenation
// order appID+query+salt+secret is part of the provider's documented scheme;
// reordering it fails every signed call.
func Sign(appID, query, salt, secret string) string {
	sum := md5.Sum([]byte(appID + query + salt + secret))
	return hex.EncodeToString(sum[:])
}

// NewSalt returns a fresh per-request nonce. Salts are never reused across
// requests.
func NewSalt() string {
	return strconv.FormatInt(globaltime.Now().UnixNano(), 10)
}

// BuildSignedRequest assembles the provider request. When credentials are
// absent the request is sent unsigned; most providers reject it with an auth
// error code, which the response mapper surfaces as a ProviderError.
func BuildSignedRequest(query, from, to string, creds Credentials) *SignedRequest {
	req := &SignedRequest{
		Query: query,
		From:  from,
		To:    to,
	}
	if !creds.Present() {
		return req
	}

	req.AppID = strings.TrimSpace(creds.AppID)
	req.Salt = NewSalt()
	req.Sign = Sign(req.AppID, query, req.Salt, strings.TrimSpace(creds.Secret))
	return req
}
