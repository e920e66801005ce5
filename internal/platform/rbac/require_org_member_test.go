package rbac

import (
	"context"
	"errors"
	"testing"

	"spades-sales-engine/backend/internal/user/domain"
)

func TestRequireOrgMember_Success_AllRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember} {
		getter := getterWith(&domain.User{ID: "user-1", OrgID: "org-1", Role: role, Active: true})

		u, err := RequireOrgMember(identityCtx("user-1", "org-1"), getter)
		if err != nil {
			t.Fatalf("RequireOrgMember(%s): %v", role, err)
		}
		if u.Role != role {
			t.Errorf("role = %q, want %q", u.Role, role)
		}
	}
}

func TestRequireOrgMember_Failure_NoContext(t *testing.T) {
	getter := getterWith(&domain.User{ID: "user-1", OrgID: "org-1", Role: domain.RoleMember, Active: true})

	_, err := RequireOrgMember(context.Background(), getter)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestRequireOrgMember_Failure_WrongOrg(t *testing.T) {
	getter := getterWith(&domain.User{ID: "user-1", OrgID: "org-2", Role: domain.RoleMember, Active: true})

	_, err := RequireOrgMember(identityCtx("user-1", "org-1"), getter)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}
