// Package injector loads an OpenAPI document, registers the oauth2 and
// apiKey security schemes, and writes scope requirements onto every
// operation that correlates to an extracted fact. Operations that resolve to
// nothing are left exactly as they were.
package injector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/libops/openapi-scopes/internal/model"
	"github.com/libops/openapi-scopes/internal/scopes"
)

// httpVerbs are the path item keys the injector visits, in visit order.
var httpVerbs = []string{"get", "post", "put", "patch", "delete"}

// UpdatedOperation records one operation the injector annotated.
type UpdatedOperation struct {
	Method      string // HTTP verb, uppercase
	Path        string
	OperationID string
	RPC         string // qualified rpc method the operation correlated to
	Scopes      []string
}

// Report summarizes an injection pass. Unmatched lists operations that
// carried an operationId but correlated to no fact; callers can audit it as
// the set of uncovered operations.
type Report struct {
	Updated   []UpdatedOperation
	Unmatched []string
}

// Inject mutates doc in place: security schemes first, then per-operation
// requirements derived from facts. Re-running on the injector's own output
// yields a byte-for-byte identical document; everything written here is
// replaced, never appended twice.
func Inject(doc *Document, facts *model.FactTable) (*Report, error) {
	top := doc.top()
	registerSecuritySchemes(top)

	report := &Report{}
	paths := mapGet(top, "paths")
	if paths == nil {
		return report, nil
	}
	if paths.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("openapi document: paths is not a mapping")
	}

	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		item := paths.Content[i+1]
		for _, verb := range httpVerbs {
			op := mapGet(item, verb)
			if op == nil || op.Kind != yaml.MappingNode {
				continue
			}

			operationID := scalarValue(mapGet(op, "operationId"))
			fact, rpc, ok := Resolve(operationID, facts)
			if !ok {
				if operationID != "" {
					report.Unmatched = append(report.Unmatched, fmt.Sprintf("%s %s (%s)", strings.ToUpper(verb), path, operationID))
				}
				continue
			}

			oauthScopes := fact.OAuthScopes
			if len(oauthScopes) == 0 {
				oauthScopes = scopes.DefaultScopes(fact.Resource, fact.Level)
			}
			if len(oauthScopes) == 0 {
				continue
			}

			injectOperation(op, fact, oauthScopes)
			report.Updated = append(report.Updated, UpdatedOperation{
				Method:      strings.ToUpper(verb),
				Path:        path,
				OperationID: operationID,
				RPC:         rpc,
				Scopes:      oauthScopes,
			})
		}
	}

	return report, nil
}

// registerSecuritySchemes installs the oauth2 and apiKey schemes under
// components.securitySchemes, replacing any previous definition wholesale so
// repeated runs cannot duplicate or corrupt them.
func registerSecuritySchemes(top *yaml.Node) {
	components := ensureMap(top, "components")
	schemes := ensureMap(components, "securitySchemes")
	mapSet(schemes, "oauth2", oauth2Scheme())
	mapSet(schemes, "apiKey", apiKeyScheme())
}

func oauth2Scheme() *yaml.Node {
	scopesMap := newMapNode()
	names := make([]string, 0, len(scopes.Descriptions))
	for name := range scopes.Descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mapSet(scopesMap, name, strNode(scopes.Descriptions[name]))
	}

	flow := newMapNode()
	mapSet(flow, "authorizationUrl", strNode("/auth/oauth/authorize"))
	mapSet(flow, "tokenUrl", strNode("/auth/oauth/token"))
	mapSet(flow, "scopes", scopesMap)

	flows := newMapNode()
	mapSet(flows, "authorizationCode", flow)

	scheme := newMapNode()
	mapSet(scheme, "type", strNode("oauth2"))
	mapSet(scheme, "description", strNode("OAuth 2.0 authentication via Vault OIDC"))
	mapSet(scheme, "flows", flows)
	return scheme
}

func apiKeyScheme() *yaml.Node {
	scheme := newMapNode()
	mapSet(scheme, "type", strNode("http"))
	mapSet(scheme, "scheme", strNode("bearer"))
	mapSet(scheme, "bearerFormat", strNode("API Key"))
	mapSet(scheme, "description", strNode("API key authentication (prefix: libops_)"))
	return scheme
}

// injectOperation writes the security requirement, summary suffix,
// authorization description section and x-* extensions for one operation.
func injectOperation(op *yaml.Node, fact model.ScopeFact, oauthScopes []string) {
	// Either credential suffices: OAuth2 with the scopes, or an API key.
	oauthReq := newMapNode()
	mapSet(oauthReq, "oauth2", seqNode(oauthScopes...))
	apiKeyReq := newMapNode()
	mapSet(apiKeyReq, "apiKey", seqNode())
	security := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	security.Content = append(security.Content, oauthReq, apiKeyReq)
	mapSet(op, "security", security)

	scopeList := strings.Join(oauthScopes, ", ")

	summary := stripRequiresSuffix(scalarValue(mapGet(op, "summary")))
	if summary == "" {
		summary = fmt.Sprintf("[Requires: %s]", scopeList)
	} else {
		summary = fmt.Sprintf("%s [Requires: %s]", summary, scopeList)
	}
	mapSet(op, "summary", strNode(summary))

	desc := stripAuthSection(scalarValue(mapGet(op, "description")))
	section := authSection(fact.Resource, oauthScopes)
	if desc == "" {
		desc = section
	} else {
		desc = desc + "\n\n" + section
	}
	mapSet(op, "description", strNode(desc))

	mapSet(op, "x-scopes", seqNode(oauthScopes...))
	mapSet(op, "x-auth-type", strNode("oauth2 or apiKey"))
	mapSet(op, "x-min-access-level", strNode(fmt.Sprintf("%s:%s", fact.Resource.Short(), fact.Level.Short())))
}

const authSectionHeader = "### Authorization"

var requiresSuffixRe = regexp.MustCompile(`\s*\[Requires: [^\]]*\]\s*$`)

// stripRequiresSuffix removes a previously injected " [Requires: ...]"
// summary suffix so re-runs replace it instead of stacking another one.
func stripRequiresSuffix(summary string) string {
	return requiresSuffixRe.ReplaceAllString(summary, "")
}

// stripAuthSection removes a previously injected authorization section from
// a description, returning the original hand-written portion.
func stripAuthSection(desc string) string {
	if i := strings.Index(desc, authSectionHeader); i >= 0 {
		desc = desc[:i]
	}
	return strings.TrimRight(desc, "\n")
}

// authSection renders the human-readable authorization block appended to an
// operation's description: the scope list as inline code, then a table
// mapping each resource in the fact's hierarchy to each scope.
func authSection(resource model.ResourceType, oauthScopes []string) string {
	var b strings.Builder
	b.WriteString(authSectionHeader)
	b.WriteString("\n\n")
	b.WriteString("An API key or OAuth token must have at least one of the following scopes in order to use this API endpoint:\n\n")
	b.WriteString("**API Key Scopes**: `")
	b.WriteString(strings.Join(oauthScopes, ", "))
	b.WriteString("`\n\n")
	b.WriteString("**OAuth Scopes**\n\n")
	b.WriteString("| Resource | Scope |\n")
	b.WriteString("|----------|-------|\n")
	for _, res := range scopes.Hierarchy(resource) {
		for _, s := range oauthScopes {
			fmt.Fprintf(&b, "| %s | `%s` |\n", res, s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
