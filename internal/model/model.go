package model

import "strings"

// ResourceType classifies what kind of resource an rpc method operates on.
// The values are the literal enum spellings used in the proto sources.
type ResourceType string

const (
	ResourceAccount      ResourceType = "RESOURCE_TYPE_ACCOUNT"
	ResourceOrganization ResourceType = "RESOURCE_TYPE_ORGANIZATION"
	ResourceProject      ResourceType = "RESOURCE_TYPE_PROJECT"
	ResourceSite         ResourceType = "RESOURCE_TYPE_SITE"
)

// AccessLevel classifies how a method accesses its resource.
type AccessLevel string

const (
	AccessRead  AccessLevel = "ACCESS_LEVEL_READ"
	AccessWrite AccessLevel = "ACCESS_LEVEL_WRITE"
	AccessAdmin AccessLevel = "ACCESS_LEVEL_ADMIN"
)

// ParseResourceType reports whether s is a known resource type literal.
func ParseResourceType(s string) (ResourceType, bool) {
	switch ResourceType(s) {
	case ResourceAccount, ResourceOrganization, ResourceProject, ResourceSite:
		return ResourceType(s), true
	}
	return "", false
}

// ParseAccessLevel reports whether s is a known access level literal.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch AccessLevel(s) {
	case AccessRead, AccessWrite, AccessAdmin:
		return AccessLevel(s), true
	}
	return "", false
}

// Short returns the lowercase display form, e.g. "organization".
func (r ResourceType) Short() string {
	return strings.ToLower(strings.TrimPrefix(string(r), "RESOURCE_TYPE_"))
}

// Short returns the lowercase display form, e.g. "read".
func (l AccessLevel) Short() string {
	return strings.ToLower(strings.TrimPrefix(string(l), "ACCESS_LEVEL_"))
}

// ScopeFact is the authorization requirement extracted from one rpc method's
// required_scope annotation. OAuthScopes holds the explicit oauth_scopes
// entries in declaration order; when empty, callers fall back to the default
// scope mapping for (Resource, Level). A ScopeFact is never modified after
// extraction.
type ScopeFact struct {
	Resource    ResourceType
	Level       AccessLevel
	OAuthScopes []string
}

// FactTable maps fully-qualified method names ("package.Service/Method") to
// the ScopeFact extracted for them. Iteration order is the order facts were
// added, i.e. the order services and methods appear in the schema sources.
// Correlation resolves ties by that order, so it must stay deterministic.
type FactTable struct {
	order []string
	facts map[string]ScopeFact
}

// NewFactTable returns an empty table.
func NewFactTable() *FactTable {
	return &FactTable{facts: make(map[string]ScopeFact)}
}

// Add records a fact under the given qualified method name. Adding the same
// name twice replaces the fact but keeps the name's original position; the
// schema defining a method twice is a documented ambiguity, not an error.
func (t *FactTable) Add(method string, fact ScopeFact) {
	if _, ok := t.facts[method]; !ok {
		t.order = append(t.order, method)
	}
	t.facts[method] = fact
}

// Get returns the fact for a qualified method name.
func (t *FactTable) Get(method string) (ScopeFact, bool) {
	f, ok := t.facts[method]
	return f, ok
}

// Len returns the number of facts in the table.
func (t *FactTable) Len() int {
	return len(t.order)
}

// Methods returns the qualified method names in insertion order. The returned
// slice is owned by the table and must not be modified.
func (t *FactTable) Methods() []string {
	return t.order
}
