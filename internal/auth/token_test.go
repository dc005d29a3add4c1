package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789"

func TestIssuer_IssueAndVerify(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)

	token, err := iss.Issue(7, "alice", "admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.Role != "admin" {
		t.Errorf("claims = %+v, want id=7 username=alice role=admin", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", got)
	}
}

func TestIssuer_VerifyExpired(t *testing.T) {
	iss := NewIssuer(testSecret, time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := iss.Issue(1, "bob", "admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIssuer_VerifyInvalid(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	other := NewIssuer("another-secret-0123456789", time.Hour)

	foreign, err := other.Issue(1, "mallory", "admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  1,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"alg none", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Verify(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Verify(%s) = %v, want ErrTokenInvalid", tt.name, err)
			}
		})
	}
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	if got := NewIssuer(testSecret, 0).TTL(); got != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTTL)
	}
}
