package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// AccessClaims are the claims embedded in a self-issued access token JWT.
type AccessClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
}

// VerifyOutcome classifies why a token did or didn't verify.
type VerifyOutcome int

const (
	OutcomeValid VerifyOutcome = iota
	OutcomeExpired
	OutcomeInvalidSignature
	OutcomeMalformed
)

func (o VerifyOutcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "EXPIRED"
	case OutcomeInvalidSignature:
		return "INVALID_SIGNATURE"
	default:
		return "MALFORMED"
	}
}

// TokenIssuer is a self-signed HS256 compact JWT issuer/verifier wrapping
// go-jose, with a 15-minute default access token lifetime.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

// NewTokenIssuer creates a TokenIssuer. secret must be at least 32 bytes.
// A zero ttl selects the 15-minute default.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token signing secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &TokenIssuer{signingKey: []byte(secret), ttl: ttl, issuer: "clearvoice"}, nil
}

// Issue creates a signed access token for the given subject (user ID) and email.
func (ti *TokenIssuer) Issue(subject, email string) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: ti.signingKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	now := time.Now()
	registered := jwt.Claims{
		Subject:  subject,
		Issuer:   ti.issuer,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(ti.ttl)),
	}

	token, err := jwt.Signed(signer).
		Claims(registered).
		Claims(AccessClaims{Subject: subject, Email: email}).
		Serialize()
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Verify parses and verifies a compact JWT, returning the claims on success
// and a specific VerifyOutcome in all cases (including failure) so callers
// can distinguish an expired token from a tampered one.
func (ti *TokenIssuer) Verify(raw string) (*AccessClaims, VerifyOutcome) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, OutcomeMalformed
	}

	var registered jwt.Claims
	var custom AccessClaims
	if err := tok.Claims(ti.signingKey, &registered, &custom); err != nil {
		// go-jose returns a signature error for both tampering and a wrong
		// key; either way the signature did not verify.
		return nil, OutcomeInvalidSignature
	}

	if err := registered.Validate(jwt.Expected{Issuer: ti.issuer}); err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, OutcomeExpired
		}
		return nil, OutcomeMalformed
	}

	return &custom, OutcomeValid
}
