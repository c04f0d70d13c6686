// Package scopes holds the static OAuth scope tables: the default
// (resource, level) → scope mapping used when an annotation carries no
// explicit oauth_scopes, the scope description registry published in the
// oauth2 security scheme, and the resource hierarchy rows rendered into
// operation descriptions. The tables mirror SCOPES.md and are passed by
// reference; nothing mutates them after init.
package scopes

import "github.com/libops/openapi-scopes/internal/model"

type mappingKey struct {
	Resource model.ResourceType
	Level    model.AccessLevel
}

var defaultScopes = map[mappingKey][]string{
	{model.ResourceAccount, model.AccessRead}:  {"read:user", "read:organizations"},
	{model.ResourceAccount, model.AccessWrite}: {"write:user"},
	{model.ResourceAccount, model.AccessAdmin}: {"write:user"},

	{model.ResourceOrganization, model.AccessRead}:  {"read:organization"},
	{model.ResourceOrganization, model.AccessWrite}: {"write:organization", "read:organization"},
	{model.ResourceOrganization, model.AccessAdmin}: {"delete:organization", "write:organization", "read:organization", "manage_secrets"},

	{model.ResourceProject, model.AccessRead}:  {"read:project"},
	{model.ResourceProject, model.AccessWrite}: {"write:project", "read:project"},
	{model.ResourceProject, model.AccessAdmin}: {"delete:project", "write:project", "read:project", "manage_secrets"},

	{model.ResourceSite, model.AccessRead}:  {"read:site"},
	{model.ResourceSite, model.AccessWrite}: {"write:site", "read:site"},
	{model.ResourceSite, model.AccessAdmin}: {"delete:site", "write:site", "read:site", "manage_secrets"},
}

// DefaultScopes returns the default OAuth scope list for a resource/level
// pair, or nil if the pair is not in the table.
func DefaultScopes(resource model.ResourceType, level model.AccessLevel) []string {
	return defaultScopes[mappingKey{resource, level}]
}

// Descriptions maps every published scope string to its human-readable
// description. It seeds the scopes dictionary of the oauth2 security scheme,
// so it deliberately includes scopes that no default mapping entry produces.
var Descriptions = map[string]string{
	"read:user":           "Read user account information",
	"write:user":          "Update user account information",
	"read:organizations":  "Read user's organizations",
	"read:organization":   "Read organization details",
	"write:organization":  "Update organization",
	"delete:organization": "Delete organization",
	"read:projects":       "Read organization projects",
	"create:projects":     "Create organization projects",
	"write:projects":      "Update organization projects",
	"delete:projects":     "Delete organization projects",
	"read:members":        "Read organization/project/site members",
	"write:members":       "Manage organization/project/site members",
	"delete:members":      "Remove organization/project/site members",
	"read:invoices":       "Read organization invoices",
	"read:firewall":       "Read firewall rules",
	"write:firewall":      "Update firewall rules",
	"delete:firewall":     "Delete firewall rules",
	"read:site":           "Read site details",
	"write:site":          "Update site configuration",
	"delete:site":         "Delete site",
	"read:sites":          "Read project sites",
	"write:sites":         "Update project sites",
	"delete:sites":        "Delete project sites",
	"promote_sites":       "Promote sites between environments",
	"read:project":        "Read project details",
	"write:project":       "Update project",
	"delete:project":      "Delete project",
	"manage_secrets":      "Read, write, and delete secrets",
	"admin:system":        "Full system administrative access",
}

var hierarchy = map[model.ResourceType][]string{
	model.ResourceAccount:      {"Account"},
	model.ResourceOrganization: {"Organization"},
	model.ResourceProject:      {"Organization", "Project"},
	model.ResourceSite:         {"Organization", "Project", "Site"},
}

// Hierarchy returns the resource rows shown in an operation's authorization
// table for the given resource type: the chain of resources a credential may
// be attached to, ending at the resource itself.
func Hierarchy(resource model.ResourceType) []string {
	return hierarchy[resource]
}
