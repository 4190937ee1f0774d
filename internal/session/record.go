// Package session implements the server-side session records persisted
// across the OIDC redirect round-trip and the sealed browser cookie that
// carries the session ID.
package session

import (
	"time"
)

// RBACRole is one role-organisation binding from the provider's role claim.
type RBACRole struct {
	PersonOrgID  string `json:"personOrgID"`
	PersonRoleID string `json:"personRoleID"`
	OrgCode      string `json:"orgCode"`
	RoleName     string `json:"roleName"`
}

// OrgMembership is one organisation membership of the user.
type OrgMembership struct {
	PersonOrgID string `json:"personOrgID"`
	OrgName     string `json:"orgName"`
	OrgCode     string `json:"orgCode"`
}

// UserOrg is one organisation the user may act for.
type UserOrg struct {
	OrgCode string `json:"orgCode"`
	OrgName string `json:"orgName"`
}

// UserProfile is the internal profile mapped from provider claims.
// It is what downstream role-based access decisions consume.
type UserProfile struct {
	UID            string          `json:"uid" validate:"required"`
	SelectedRoleID string          `json:"selectedRoleID"`
	DisplayName    string          `json:"displayName"`
	RBACRoles      []RBACRole      `json:"rbacRoles" validate:"unique=PersonRoleID"`
	OrgMemberships []OrgMembership `json:"orgMemberships"`
	UserOrgs       []UserOrg       `json:"userOrgs"`
}

// TokenSet is a validated token response from the provider.
type TokenSet struct {
	AccessToken  string    `json:"access_token" validate:"required"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Record is one browser's authentication transaction/session.
//
// State is bound at issuance and never mutated afterwards. UserID, User and
// Tokens are populated exactly once, by a successful callback. A record
// whose ExpiresAt has passed is logically destroyed even while the row is
// still physically present; physical deletion is left to store TTL jobs.
type Record struct {
	SessionID string              `gorm:"primaryKey;size:64"`
	State     string              `gorm:"size:255;not null"`
	ExpiresAt time.Time           `gorm:"not null;index"`
	UserID    string              `gorm:"size:255"`
	User      *UserProfile        `gorm:"serializer:json"`
	Tokens    map[string]TokenSet `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName sets the session table name.
func (Record) TableName() string {
	return "sessions"
}

// Expired reports whether the record is logically destroyed at time now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
