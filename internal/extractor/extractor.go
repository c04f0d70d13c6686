// Package extractor scans proto schema sources for required_scope method
// annotations and builds the fact table consumed by the injector.
//
// The scan is regex and brace-depth based, not a grammar parse. It assumes
// services do not nest, methods do not nest inside a service body, and the
// required_scope option literal itself contains no nested braces. If the
// option syntax ever nests, this needs a real tokenizer.
package extractor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/libops/openapi-scopes/internal/model"
)

// defaultPackage is assumed when a file carries no package declaration.
const defaultPackage = "libops.v1"

var (
	packageRe   = regexp.MustCompile(`package\s+([\w.]+)\s*;`)
	serviceRe   = regexp.MustCompile(`service\s+(\w+)\s*\{`)
	rpcRe       = regexp.MustCompile(`rpc\s+(\w+)\s*\([^)]+\)\s+returns\s+\([^)]+\)\s*\{`)
	optionRe    = regexp.MustCompile(`option\s*\((?:[\w.]+\.)?required_scope\)\s*=\s*\{([^}]*)\}`)
	resourceRe  = regexp.MustCompile(`resource:\s*(RESOURCE_TYPE_\w+)`)
	levelRe     = regexp.MustCompile(`level:\s*(ACCESS_LEVEL_\w+)`)
	oauthRe     = regexp.MustCompile(`oauth_scopes:\s*"([^"]+)"`)
	protoSuffix = ".proto"
)

// Extract walks dir for *.proto files and returns the fact table built from
// their required_scope annotations. Files whose path contains "options" are
// skipped: that is where the annotation extension itself is defined.
//
// Only I/O failures produce an error. A method without a well-formed
// annotation contributes no fact and is skipped silently.
func Extract(dir string) (*model.FactTable, error) {
	table := model.NewFactTable()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, protoSuffix) {
			return nil
		}
		if strings.Contains(path, "options") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read proto: %w", err)
		}
		extractFile(string(data), table)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk proto dir %s: %w", dir, err)
	}

	return table, nil
}

// extractFile scans one file's content and adds any facts to table.
func extractFile(content string, table *model.FactTable) {
	pkg := defaultPackage
	if m := packageRe.FindStringSubmatch(content); m != nil {
		pkg = m[1]
	}

	// Bound each service body by the start of the next service declaration
	// (or end of file); services never nest, so this is exact enough.
	starts := serviceRe.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range starts {
		name := content[loc[2]:loc[3]]
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		extractService(content[loc[0]:end], pkg, name, table)
	}
}

// extractService scans one service body for rpc declarations.
func extractService(body, pkg, service string, table *model.FactTable) {
	for _, loc := range rpcRe.FindAllStringSubmatchIndex(body, -1) {
		method := body[loc[2]:loc[3]]

		// loc[1] is just past the method's opening brace; scan to its
		// matching close. Depth 1 covers the option literal's own braces.
		block, ok := braceBlock(body, loc[1])
		if !ok {
			continue
		}

		fact, ok := parseAnnotation(block)
		if !ok {
			continue
		}
		table.Add(fmt.Sprintf("%s.%s/%s", pkg, service, method), fact)
	}
}

// braceBlock returns the text between an already-consumed opening brace at
// position start-1 and its matching closing brace.
func braceBlock(s string, start int) (string, bool) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start:i], true
			}
		}
	}
	return "", false
}

// parseAnnotation pulls resource, level and oauth_scopes out of a method
// body. Any missing or unrecognized required field means no fact.
func parseAnnotation(block string) (model.ScopeFact, bool) {
	m := optionRe.FindStringSubmatch(block)
	if m == nil {
		return model.ScopeFact{}, false
	}
	body := m[1]

	rm := resourceRe.FindStringSubmatch(body)
	if rm == nil {
		return model.ScopeFact{}, false
	}
	resource, ok := model.ParseResourceType(rm[1])
	if !ok {
		return model.ScopeFact{}, false
	}

	lm := levelRe.FindStringSubmatch(body)
	if lm == nil {
		return model.ScopeFact{}, false
	}
	level, ok := model.ParseAccessLevel(lm[1])
	if !ok {
		return model.ScopeFact{}, false
	}

	var oauthScopes []string
	for _, sm := range oauthRe.FindAllStringSubmatch(body, -1) {
		oauthScopes = append(oauthScopes, sm[1])
	}

	return model.ScopeFact{Resource: resource, Level: level, OAuthScopes: oauthScopes}, true
}
