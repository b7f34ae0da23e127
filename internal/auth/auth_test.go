package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue(Identity{UserID: 42, Username: "ada"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if id.UserID != 42 || id.Username != "ada" {
		t.Errorf("Verify() = %+v, want {42 ada}", id)
	}
}

func TestVerify_NoExpiry(t *testing.T) {
	v := NewVerifier("secret")
	token, _ := v.Issue(Identity{UserID: 1, Username: "bob"}, 0)
	if _, err := v.Verify(token); err != nil {
		t.Errorf("Verify() error for token without exp: %v", err)
	}
}

func TestVerify_Empty(t *testing.T) {
	v := NewVerifier("secret")
	_, err := v.Verify("  ")
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("Verify(\"\") error = %v, want ErrAuthentication", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _ := NewVerifier("other").Issue(Identity{UserID: 1, Username: "bob"}, time.Hour)
	_, err := NewVerifier("secret").Verify(token)
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("Verify() error = %v, want ErrAuthentication", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	v := NewVerifier("secret")
	issuedAt := time.Now().Add(-2 * time.Hour)
	v.now = func() time.Time { return issuedAt }
	token, _ := v.Issue(Identity{UserID: 1, Username: "bob"}, time.Hour)

	v.now = time.Now
	_, err := v.Verify(token)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Verify() error = %v, want ErrAuthentication", err)
	}
	if err.Error() != "authentication error: token expired" {
		t.Errorf("Verify() error = %q", err.Error())
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	c := claims{ID: 5, Username: "eve"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewVerifier("secret").Verify(token); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Verify() error = %v, want ErrAuthentication for HS512", err)
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	v := NewVerifier("secret")
	token, _ := v.Issue(Identity{Username: "anon"}, time.Hour)
	if _, err := v.Verify(token); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Verify() error = %v, want ErrAuthentication", err)
	}
}
