package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/servicefinder/auth-gateway/internal/session"
)

// validate is the shared schema validator for token sets and profiles.
var validate = validator.New() //nolint:gochecknoglobals

// MapClaims transforms raw provider claims into the internal profile.
//
// The transform is total over everything except the subject: a missing or
// empty sub aborts with a SchemaValidationError, while role and
// organisation claims of the wrong shape simply yield empty sequences and
// missing fields default to "".
func MapClaims(claims map[string]interface{}) (*session.UserProfile, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, &SchemaValidationError{Subject: "sub claim", Err: errMissingSubject}
	}

	roles := claimObjects(claims["nhsid_nrbac_roles"])
	orgMemberships := claimObjects(claims["nhsid_org_memberships"])
	userOrgs := claimObjects(claims["nhsid_user_orgs"])

	profile := &session.UserProfile{
		UID:            sub,
		SelectedRoleID: "",
		DisplayName:    displayName(claims),
		RBACRoles:      make([]session.RBACRole, 0, len(roles)),
		OrgMemberships: make([]session.OrgMembership, 0, len(orgMemberships)),
		UserOrgs:       make([]session.UserOrg, 0, len(userOrgs)),
	}

	// deterministic first-element default, no ranking
	if len(roles) > 0 {
		profile.SelectedRoleID = claimString(roles[0], "person_roleid")
	}

	for _, role := range roles {
		profile.RBACRoles = append(profile.RBACRoles, session.RBACRole{
			PersonOrgID:  claimString(role, "person_orgid"),
			PersonRoleID: claimString(role, "person_roleid"),
			OrgCode:      claimString(role, "org_code"),
			RoleName:     claimString(role, "role_name"),
		})
	}

	for _, org := range orgMemberships {
		profile.OrgMemberships = append(profile.OrgMemberships, session.OrgMembership{
			PersonOrgID: claimString(org, "person_orgid"),
			OrgName:     claimString(org, "org_name"),
			OrgCode:     claimString(org, "org_code"),
		})
	}

	for _, org := range userOrgs {
		profile.UserOrgs = append(profile.UserOrgs, session.UserOrg{
			OrgCode: claimString(org, "org_code"),
			OrgName: claimString(org, "org_name"),
		})
	}

	if err := validate.Struct(profile); err != nil {
		return nil, &SchemaValidationError{Subject: "user profile", Err: err}
	}

	return profile, nil
}

// displayName prefers the name claim, falls back to "given_name
// family_name" trimmed, and finally to "".
func displayName(claims map[string]interface{}) string {
	if name, _ := claims["name"].(string); name != "" {
		return name
	}

	given, _ := claims["given_name"].(string)
	family, _ := claims["family_name"].(string)

	return strings.TrimSpace(given + " " + family)
}

// claimObjects returns the claim as a slice of objects, or an empty slice
// when the claim is absent or not an array.
func claimObjects(v interface{}) []map[string]interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]map[string]interface{}, 0, len(arr))

	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}

	return out
}

// claimString returns the string field of a claim object, defaulting to "".
func claimString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
