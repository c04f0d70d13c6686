package injector

import (
	"strings"

	"github.com/libops/openapi-scopes/internal/model"
)

// The OpenAPI generator and the proto sources spell method identity
// differently: "OrgService_ListMembers" versus "libops.v1.OrgService/ListMembers".
// Correlation strips the separators from both sides and tests for a
// substring. This is a heuristic; existing documents rely on it, including
// the first-match-wins tie-break over fact declaration order, so keep both
// exactly as they are.

var separators = strings.NewReplacer("/", "", ".", "", "_", "")

func normalize(s string) string {
	return separators.Replace(s)
}

// Resolve maps an operationId to the fact for the matching rpc method. The
// fact table is scanned in declaration order and the first key whose
// normalized form contains the normalized operationId wins. An empty
// operationId never matches.
func Resolve(operationID string, facts *model.FactTable) (model.ScopeFact, string, bool) {
	if operationID == "" {
		return model.ScopeFact{}, "", false
	}
	needle := normalize(operationID)
	for _, method := range facts.Methods() {
		if strings.Contains(normalize(method), needle) {
			fact, _ := facts.Get(method)
			return fact, method, true
		}
	}
	return model.ScopeFact{}, "", false
}
