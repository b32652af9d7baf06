package domain

import (
	"strings"
	"time"
)

// Canonical role names. The vocabulary is fixed; name lookup is
// case-insensitive and exactly one role exists per name.
const (
	RoleAdmin       = "ADMIN"
	RoleProducteur  = "PRODUCTEUR"
	RoleCooperative = "COOPERATIVE"
	RoleTechnicien  = "TECHNICIEN"
	RoleONG         = "ONG"
	RoleEtat        = "ETAT"
	RoleViewer      = "VIEWER"
)

// LegacyRoleBuyer is migrated to VIEWER at startup.
const LegacyRoleBuyer = "buyer"

// AuthorityPrefix is prepended to a canonical role name to build the
// authority string consumed by the access-control layer.
const AuthorityPrefix = "ROLE_"

// Role is a persisted role record.
type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// CanonicalRoles returns the fixed role vocabulary with seed descriptions,
// in seeding order.
func CanonicalRoles() []Role {
	return []Role{
		{Name: RoleProducteur, Description: "Agriculteur"},
		{Name: RoleTechnicien, Description: "Technicien Agricole"},
		{Name: RoleCooperative, Description: "Coopérative Agricole"},
		{Name: RoleONG, Description: "ONG"},
		{Name: RoleEtat, Description: "Acteur Étatique"},
		{Name: RoleAdmin, Description: "Administrateur Système"},
		{Name: RoleViewer, Description: "Viewer"},
	}
}

// roleSynonyms maps legacy and foreign spellings onto canonical names.
// Inputs are matched after trimming, upper-casing, and prefix stripping.
var roleSynonyms = map[string]string{
	"ADMINISTRATEUR": RoleAdmin,
	"ADMINISTRATOR":  RoleAdmin,
	"SYSTEM_ADMIN":   RoleAdmin,
	"SUPERADMIN":     RoleAdmin,
	"FARMER":         RoleProducteur,
	"PRODUCER":       RoleProducteur,
	"TECH":           RoleTechnicien,
	"COOP":           RoleCooperative,
	"COOPERATIF":     RoleCooperative,
	"STATE":          RoleEtat,
	"GOV":            RoleEtat,
}

// NormalizeRole reduces a free-form role string to its canonical name.
// The mapping is idempotent. Unrecognized non-empty input passes through
// unchanged; empty input yields the empty string.
//
// This is the single normalization path shared by token issuance and
// per-request resolution.
func NormalizeRole(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, AuthorityPrefix)

	if canonical, ok := roleSynonyms[name]; ok {
		return canonical
	}
	return name
}

// Authority builds the authority string for a canonical role name.
// Empty input yields the empty string.
func Authority(canonical string) string {
	if canonical == "" {
		return ""
	}
	return AuthorityPrefix + canonical
}
