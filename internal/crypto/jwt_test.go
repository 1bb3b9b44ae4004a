package crypto

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenIssuer_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer("too-short", time.Minute); err == nil {
		t.Fatal("expected error for secret under 32 bytes, got nil")
	}
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	raw, err := issuer.Issue("usr_123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, outcome := issuer.Verify(raw)
	if outcome != OutcomeValid {
		t.Fatalf("Verify() outcome = %v, want valid", outcome)
	}
	if claims.Subject != "usr_123" || claims.Email != "a@b.com" {
		t.Errorf("Verify() claims = %+v, want subject=usr_123 email=a@b.com", claims)
	}
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	raw, err := issuer.Issue("usr_123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, outcome := issuer.Verify(raw)
	if outcome != OutcomeExpired {
		t.Errorf("Verify() outcome = %v, want expired", outcome)
	}
}

func TestTokenIssuer_Verify_InvalidSignature(t *testing.T) {
	issuerA, err := NewTokenIssuer(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	issuerB, err := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	raw, err := issuerA.Issue("usr_123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, outcome := issuerB.Verify(raw)
	if outcome != OutcomeInvalidSignature {
		t.Errorf("Verify() outcome = %v, want invalid signature", outcome)
	}
}

func TestTokenIssuer_Verify_Malformed(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	_, outcome := issuer.Verify("not-a-jwt")
	if outcome != OutcomeMalformed {
		t.Errorf("Verify() outcome = %v, want malformed", outcome)
	}
}
