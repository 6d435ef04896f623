package utils

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, "tempo-pos")

	token, err := m.GenerateAccessToken("user-1", "kasir@example.com", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "kasir@example.com" || !claims.Admin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateAccessTokenRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, "tempo-pos")
	token, _ := m.GenerateAccessToken("user-1", "a@b.c", false)

	expired := NewJWTManager("secret", time.Hour, "tempo-pos")
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tests := []struct {
		name    string
		manager *JWTManager
		token   string
	}{
		{"wrong secret", NewJWTManager("other", time.Hour, "tempo-pos"), token},
		{"wrong issuer", NewJWTManager("secret", time.Hour, "someone-else"), token},
		{"expired", expired, token},
		{"garbage", m, "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.manager.ValidateAccessToken(tt.token); err == nil {
				t.Error("ValidateAccessToken() succeeded, want error")
			}
		})
	}
}
