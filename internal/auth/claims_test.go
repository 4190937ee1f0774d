package auth

import (
	"errors"
	"testing"
)

func roleClaim(orgID, roleID, orgCode, roleName string) map[string]interface{} {
	return map[string]interface{}{
		"person_orgid":  orgID,
		"person_roleid": roleID,
		"org_code":      orgCode,
		"role_name":     roleName,
	}
}

func TestMapClaimsMissingSubject(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
	}{
		{name: "absent", claims: map[string]interface{}{"name": "Jane Doe"}},
		{name: "empty", claims: map[string]interface{}{"sub": ""}},
		{name: "wrong type", claims: map[string]interface{}{"sub": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapClaims(tt.claims)

			var schemaErr *SchemaValidationError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaValidationError, got %v", err)
			}
		})
	}
}

func TestMapClaimsFullProfile(t *testing.T) {
	claims := map[string]interface{}{
		"sub":  "user-1",
		"name": "Jane Doe",
		"nhsid_nrbac_roles": []interface{}{
			roleClaim("org-1", "role-1", "A1B2", "Clinical Practitioner"),
			roleClaim("org-2", "role-2", "C3D4", "Admin"),
		},
		"nhsid_org_memberships": []interface{}{
			map[string]interface{}{
				"person_orgid": "org-1",
				"org_name":     "Example Trust",
				"org_code":     "A1B2",
			},
		},
		"nhsid_user_orgs": []interface{}{
			map[string]interface{}{
				"org_code": "A1B2",
				"org_name": "Example Trust",
			},
		},
	}

	profile, err := MapClaims(claims)
	if err != nil {
		t.Fatalf("MapClaims() error = %v", err)
	}

	if profile.UID != "user-1" {
		t.Errorf("UID = %q, want user-1", profile.UID)
	}

	if profile.DisplayName != "Jane Doe" {
		t.Errorf("DisplayName = %q, want Jane Doe", profile.DisplayName)
	}

	// first role wins, no ranking
	if profile.SelectedRoleID != "role-1" {
		t.Errorf("SelectedRoleID = %q, want role-1", profile.SelectedRoleID)
	}

	if len(profile.RBACRoles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(profile.RBACRoles))
	}

	role := profile.RBACRoles[0]
	if role.PersonOrgID != "org-1" || role.PersonRoleID != "role-1" || role.OrgCode != "A1B2" || role.RoleName != "Clinical Practitioner" {
		t.Errorf("unexpected first role mapping: %+v", role)
	}

	if len(profile.OrgMemberships) != 1 || profile.OrgMemberships[0].OrgName != "Example Trust" {
		t.Errorf("unexpected org memberships: %+v", profile.OrgMemberships)
	}

	if len(profile.UserOrgs) != 1 || profile.UserOrgs[0].OrgCode != "A1B2" {
		t.Errorf("unexpected user orgs: %+v", profile.UserOrgs)
	}
}

func TestMapClaimsMalformedSequences(t *testing.T) {
	claims := map[string]interface{}{
		"sub":                   "user-1",
		"nhsid_nrbac_roles":     "not an array",
		"nhsid_org_memberships": 42,
		"nhsid_user_orgs":       map[string]interface{}{"org_code": "A1B2"},
	}

	profile, err := MapClaims(claims)
	if err != nil {
		t.Fatalf("MapClaims() error = %v", err)
	}

	if len(profile.RBACRoles) != 0 || len(profile.OrgMemberships) != 0 || len(profile.UserOrgs) != 0 {
		t.Fatalf("malformed claim sequences must map to empty sequences, got %+v", profile)
	}

	if profile.SelectedRoleID != "" {
		t.Errorf("SelectedRoleID = %q, want empty", profile.SelectedRoleID)
	}
}

func TestMapClaimsPartialRoleFields(t *testing.T) {
	claims := map[string]interface{}{
		"sub": "user-1",
		"nhsid_nrbac_roles": []interface{}{
			map[string]interface{}{"person_roleid": "role-1"},
		},
	}

	profile, err := MapClaims(claims)
	if err != nil {
		t.Fatalf("MapClaims() error = %v", err)
	}

	role := profile.RBACRoles[0]
	if role.PersonOrgID != "" || role.OrgCode != "" || role.RoleName != "" {
		t.Errorf("absent role fields must default to empty, got %+v", role)
	}

	if role.PersonRoleID != "role-1" {
		t.Errorf("PersonRoleID = %q, want role-1", role.PersonRoleID)
	}
}

func TestMapClaimsDuplicateRoleIDs(t *testing.T) {
	claims := map[string]interface{}{
		"sub": "user-1",
		"nhsid_nrbac_roles": []interface{}{
			roleClaim("org-1", "role-1", "A1B2", "First"),
			roleClaim("org-2", "role-1", "C3D4", "Second"),
		},
	}

	_, err := MapClaims(claims)

	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaValidationError for duplicate role IDs, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
		want   string
	}{
		{
			name:   "name claim wins",
			claims: map[string]interface{}{"name": "Jane Doe", "given_name": "J", "family_name": "D"},
			want:   "Jane Doe",
		},
		{
			name:   "given and family",
			claims: map[string]interface{}{"given_name": "Jane", "family_name": "Doe"},
			want:   "Jane Doe",
		},
		{
			name:   "given only",
			claims: map[string]interface{}{"given_name": "Jane"},
			want:   "Jane",
		},
		{
			name:   "family only",
			claims: map[string]interface{}{"family_name": "Doe"},
			want:   "Doe",
		},
		{
			name:   "nothing",
			claims: map[string]interface{}{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayName(tt.claims); got != tt.want {
				t.Errorf("displayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
