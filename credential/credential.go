// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Account is the informational account metadata carried in a token.
// Nothing in this module branches on it.
type Account struct {
	SubjectID    string `json:"subject_id"`
	Subscription bool   `json:"subscription"`
	LoggedIn     bool   `json:"logged_in"`
	AccountType  string `json:"account_type,omitempty"`

	// Extra holds every other claim (theme, language, custom CSS
	// flags …) unchanged.
	Extra map[string]any `json:"extra,omitempty"`
}

// Credential is a bearer token with its validity window. Values are
// immutable; refreshing produces a new Credential.
type Credential struct {
	Token     string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   Account   `json:"account"`
}

// New builds a Credential, enforcing a non-empty token and
// ExpiresAt > IssuedAt.
func New(token string, issuedAt, expiresAt time.Time, account Account) (Credential, error) {
	if token == "" {
		return Credential{}, errors.New("empty token")
	}
	if !expiresAt.After(issuedAt) {
		return Credential{}, fmt.Errorf("token expires at %s, not after its issue time %s",
			expiresAt.Format(time.RFC3339), issuedAt.Format(time.RFC3339))
	}
	return Credential{Token: token, IssuedAt: issuedAt, ExpiresAt: expiresAt, Account: account}, nil
}

// Lifetime is ExpiresAt - IssuedAt.
func (c Credential) Lifetime() time.Duration { return c.ExpiresAt.Sub(c.IssuedAt) }

// ValidAt reports whether the credential can still be sent at now with
// margin to spare.
func (c Credential) ValidAt(now time.Time, margin time.Duration) bool {
	return now.Add(margin).Before(c.ExpiresAt)
}

// TokenHints are the token endpoint's own fields, used when the JWT
// lacks the matching claim.
type TokenHints struct {
	SubjectID    string
	Subscription bool
	LoggedIn     bool
	AccountType  string
	ExpiresAt    time.Time
}

// knownClaims are mapped onto Credential fields and excluded from
// Account.Extra.
var knownClaims = map[string]bool{
	"id": true, "subscription": true, "loggedIn": true, "accountType": true,
	"iat": true, "exp": true,
}

// ParseToken decodes token's claims without verifying its signature and
// builds a Credential. The exp claim wins over hints.ExpiresAt unless the
// hint is earlier; iat falls back to now.
func ParseToken(token string, hints TokenHints, now time.Time) (Credential, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Credential{}, fmt.Errorf("decoding token claims: %w", err)
	}

	expiresAt := hints.ExpiresAt
	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return Credential{}, fmt.Errorf("token exp claim: %w", err)
	}
	if expiry != nil && (expiresAt.IsZero() || expiry.Time.Before(expiresAt)) {
		expiresAt = expiry.Time
	}
	if expiresAt.IsZero() {
		return Credential{}, errors.New("token carries no expiry")
	}

	issuedAt := now
	issued, err := claims.GetIssuedAt()
	if err != nil {
		return Credential{}, fmt.Errorf("token iat claim: %w", err)
	}
	if issued != nil {
		issuedAt = issued.Time
	}

	account := Account{
		SubjectID:    hints.SubjectID,
		Subscription: hints.Subscription,
		LoggedIn:     hints.LoggedIn,
		AccountType:  hints.AccountType,
	}
	if raw, present := claims["id"]; present {
		subject, ok := claimString(raw)
		if !ok {
			return Credential{}, fmt.Errorf("token id claim has type %T", raw)
		}
		account.SubjectID = subject
	}
	if account.SubjectID == "" {
		return Credential{}, errors.New("token carries no subject id")
	}
	if value, ok := claims["subscription"].(bool); ok {
		account.Subscription = value
	}
	if value, ok := claims["loggedIn"].(bool); ok {
		account.LoggedIn = value
	}
	if value, ok := claims["accountType"].(string); ok {
		account.AccountType = value
	}
	for name, value := range claims {
		if knownClaims[name] {
			continue
		}
		if account.Extra == nil {
			account.Extra = make(map[string]any)
		}
		account.Extra[name] = value
	}

	return New(token, issuedAt, expiresAt, account)
}

// claimString accepts string and numeric subject ids.
func claimString(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return "", false
	}
}
