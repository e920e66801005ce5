package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAccessAndRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessionID, userID, orgID, role := "s1", "u1", "o1", "admin"

	access, accessJti, exp, err := p.IssueAccess(sessionID, userID, orgID, role)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" || accessJti == "" {
		t.Fatal("access token or jti empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	refresh, jti, refreshExp, err := p.IssueRefresh(sessionID, userID, orgID)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" || jti == "" {
		t.Fatal("refresh token or jti empty")
	}
	if refreshExp.Before(time.Now()) {
		t.Fatal("refresh expires at in the past")
	}

	claims, err := p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if claims.SessionID != sessionID || claims.ID != jti || claims.Subject != userID || claims.OrgID != orgID {
		t.Errorf("ValidateRefresh: got sessionID=%q jti=%q userID=%q orgID=%q", claims.SessionID, claims.ID, claims.Subject, claims.OrgID)
	}
}

func TestTokenProvider_ValidateRefreshInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateRefresh("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateRefresh invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessionID, userID, orgID, role := "s1", "u1", "o1", "owner"
	access, _, _, err := p.IssueAccess(sessionID, userID, orgID, role)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if claims.SessionID != sessionID || claims.Subject != userID || claims.OrgID != orgID || claims.Role != role {
		t.Errorf("ValidateAccess: got sessionID=%q userID=%q orgID=%q role=%q", claims.SessionID, claims.Subject, claims.OrgID, claims.Role)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateAccess("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateAccess invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_AccessNotValidAsRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	access, _, _, err := p.IssueAccess("s1", "u1", "o1", "member")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	// An access token parses as RefreshClaims (same registered claims), but a
	// tampered body must not.
	if _, err := p.ValidateRefresh(access + "x"); err != ErrInvalidToken {
		t.Errorf("tampered token: want ErrInvalidToken, got %v", err)
	}
}
