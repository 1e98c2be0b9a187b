package auth

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

func TestAuthMiddleware(t *testing.T) {
	privPEM, pubPEM := generateTestKeys(t) // Reusing helper from token_test.go
	signer, _ := NewSigner(privPEM, pubPEM, "test-issuer")

	// Generate a valid token
	userID := uuid.New()
	token, _ := signer.GenerateToken(userID, "user@example.com", RoleAdmin)

	interceptor := NewAuthInterceptor(signer)
	dummyHandler := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		// Verify context injection
		id, ok := GetUserID(ctx)
		if !ok || id != userID.String() {
			t.Errorf("Context missing correct UserID. Got %v, want %s", id, userID)
		}
		role, ok := GetRole(ctx)
		if !ok || role != RoleAdmin {
			t.Errorf("Context missing correct Role. Got %v, want %s", role, RoleAdmin)
		}
		return connect.NewResponse(&struct{}{}), nil
	}

	// 1. Test Valid Request
	req := connect.NewRequest(&struct{}{})
	req.Header().Set("Authorization", "Bearer "+token)

	_, err := interceptor(dummyHandler)(context.Background(), req)
	if err != nil {
		t.Errorf("Unexpected error on valid request: %v", err)
	}

	// 2. Test Missing Header
	reqMissing := connect.NewRequest(&struct{}{})
	_, err = interceptor(dummyHandler)(context.Background(), reqMissing)
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("Expected unauthenticated for missing header, got %v", err)
	}

	// 3. Test Invalid Header Format
	reqBadFormat := connect.NewRequest(&struct{}{})
	reqBadFormat.Header().Set("Authorization", token) // Missing "Bearer "
	_, err = interceptor(dummyHandler)(context.Background(), reqBadFormat)
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("Expected unauthenticated for bad header format, got %v", err)
	}

	// 4. Test Garbage Token
	reqGarbage := connect.NewRequest(&struct{}{})
	reqGarbage.Header().Set("Authorization", "Bearer not-a-jwt")
	_, err = interceptor(dummyHandler)(context.Background(), reqGarbage)
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("Expected unauthenticated for garbage token, got %v", err)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	privPEM, pubPEM := generateTestKeys(t)
	signer, _ := NewSigner(privPEM, pubPEM, "test-issuer")
	interceptor := NewOptionalAuthInterceptor(signer)

	var sawClaims bool
	handler := interceptor(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		_, sawClaims = GetUserClaims(ctx)
		return connect.NewResponse(&struct{}{}), nil
	})

	// Anonymous call passes without claims
	_, err := handler(context.Background(), connect.NewRequest(&struct{}{}))
	if err != nil {
		t.Fatalf("Unexpected error on anonymous request: %v", err)
	}
	if sawClaims {
		t.Error("Anonymous request should not carry claims")
	}

	// Valid token injects claims
	token, _ := signer.GenerateToken(uuid.New(), "user@example.com", RoleUser)
	req := connect.NewRequest(&struct{}{})
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := handler(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error on valid request: %v", err)
	}
	if !sawClaims {
		t.Error("Authenticated request should carry claims")
	}

	// An invalid token is never downgraded to anonymous
	reqBad := connect.NewRequest(&struct{}{})
	reqBad.Header().Set("Authorization", "Bearer not-a-jwt")
	_, err = handler(context.Background(), reqBad)
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("Expected unauthenticated for invalid token, got %v", err)
	}
}
