package auth

import "testing"

func TestAuthorizeAllowsListedRole(t *testing.T) {
	if err := Authorize(RoleCoordinator, RoleCoordinator, RoleAdmin); err != nil {
		t.Fatalf("expected coordinator to be allowed: %v", err)
	}
}

func TestAuthorizeHasNoHierarchy(t *testing.T) {
	// SUPER_ADMIN passes only where it is explicitly listed.
	if err := Authorize(RoleSuperAdmin, RoleAdmin); err == nil {
		t.Fatalf("SUPER_ADMIN must not pass an ADMIN-only check")
	}
	if err := Authorize(RoleAdmin, RoleAdmin, RoleSuperAdmin); err != nil {
		t.Fatalf("ADMIN should pass where listed: %v", err)
	}
	if err := Authorize(RoleSuperAdmin, RoleAdmin, RoleSuperAdmin); err != nil {
		t.Fatalf("SUPER_ADMIN should pass where listed: %v", err)
	}
}

func TestAuthorizeRejectsUnlistedRole(t *testing.T) {
	if err := Authorize(RoleClient, RoleAdmin, RoleSuperAdmin); err == nil {
		t.Fatalf("CLIENT must not pass an admin check")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"CLIENT", RoleClient, false},
		{"KEBELE_MANAGER", RoleKebeleManager, false},
		{"SUPER_ADMIN", RoleSuperAdmin, false},
		{"client", "", true},
		{"ROOT", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
