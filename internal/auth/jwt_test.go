package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("s3cret")
	tok, err := svc.Generate("ops", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.Validate(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("s3cret")

	other, _ := NewJWTService("other").Generate("ops", time.Hour)
	expired, _ := svc.Generate("ops", -time.Minute)
	notAdmin, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "viewer"}).SignedString([]byte("s3cret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Role: RoleAdmin}).SignedString([]byte("s3cret"))

	for name, tok := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"not admin":    notAdmin,
		"wrong alg":    hs512,
		"garbage":      "not.a.token",
	} {
		if _, err := svc.Validate(tok); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}
