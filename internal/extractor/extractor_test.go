package extractor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/libops/openapi-scopes/internal/model"
)

func TestExtract_Testdata(t *testing.T) {
	table, err := Extract(filepath.Join("..", "..", "testdata", "proto"))
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	// organization.proto is walked before site.proto; methods keep their
	// declaration order within each file.
	wantOrder := []string{
		"libops.v1.OrgService/GetOrganization",
		"libops.v1.OrgService/ListMembers",
		"libops.v1.OrgService/UpdateOrganization",
		"libops.v1.SiteService/GetSiteStatus",
		"libops.v1.SiteService/DeploySite",
		"libops.v1.SecretService/ListSiteSecrets",
	}
	if !reflect.DeepEqual(table.Methods(), wantOrder) {
		t.Fatalf("Methods() = %v\nwant %v", table.Methods(), wantOrder)
	}

	fact, ok := table.Get("libops.v1.OrgService/ListMembers")
	if !ok {
		t.Fatalf("missing fact for ListMembers")
	}
	if fact.Resource != model.ResourceOrganization || fact.Level != model.AccessRead {
		t.Errorf("ListMembers fact = %+v", fact)
	}
	if !reflect.DeepEqual(fact.OAuthScopes, []string{"read:members"}) {
		t.Errorf("ListMembers scopes = %v, want [read:members]", fact.OAuthScopes)
	}

	// Annotation without oauth_scopes keeps an empty scope list.
	fact, ok = table.Get("libops.v1.OrgService/GetOrganization")
	if !ok {
		t.Fatalf("missing fact for GetOrganization")
	}
	if len(fact.OAuthScopes) != 0 {
		t.Errorf("GetOrganization scopes = %v, want none", fact.OAuthScopes)
	}

	// Repeated oauth_scopes entries keep declaration order.
	fact, _ = table.Get("libops.v1.SiteService/DeploySite")
	if !reflect.DeepEqual(fact.OAuthScopes, []string{"write:site", "read:site"}) {
		t.Errorf("DeploySite scopes = %v, want [write:site read:site]", fact.OAuthScopes)
	}

	// Unannotated method contributes no fact.
	if _, ok := table.Get("libops.v1.OrgService/Ping"); ok {
		t.Errorf("Ping should have no fact")
	}
	// Annotation missing resource: is malformed, silently skipped.
	if _, ok := table.Get("libops.v1.OrgService/DeleteOrganization"); ok {
		t.Errorf("DeleteOrganization has a malformed annotation and should have no fact")
	}
}

func TestExtract_DefaultPackage(t *testing.T) {
	dir := t.TempDir()
	src := `
service ThingService {
  rpc GetThing(GetThingRequest) returns (GetThingResponse) {
    option (libops.v1.options.required_scope) = {
      level: ACCESS_LEVEL_READ
      resource: RESOURCE_TYPE_PROJECT
      oauth_scopes: "read:project"
    };
  }
}
`
	if err := os.WriteFile(filepath.Join(dir, "thing.proto"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Extract(dir)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	// No package declaration: the platform-wide default applies. Field order
	// inside the option literal does not matter.
	fact, ok := table.Get("libops.v1.ThingService/GetThing")
	if !ok {
		t.Fatalf("missing fact, table has %v", table.Methods())
	}
	if fact.Resource != model.ResourceProject || fact.Level != model.AccessRead {
		t.Errorf("fact = %+v", fact)
	}
}

func TestExtract_NeverErrorsOnMalformedInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.proto":      "",
		"no_services.proto": "syntax = \"proto3\";\npackage x.y;\nmessage M { string a = 1; }\n",
		"unclosed.proto":   "package x.y;\nservice S {\n  rpc A(Req) returns (Res) {\n    option (required_scope) = {\n",
		"unknown_enum.proto": `package x.y;
service S {
  rpc A(Req) returns (Res) {
    option (required_scope) = {
      resource: RESOURCE_TYPE_GALAXY
      level: ACCESS_LEVEL_READ
    };
  }
}
`,
	}
	for name, content := range cases {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	table, err := Extract(dir)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("expected no facts from malformed input, got %v", table.Methods())
	}
}

func TestExtract_SkipsOptionDefinitionFiles(t *testing.T) {
	table, err := Extract(filepath.Join("..", "..", "testdata", "proto"))
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	for _, method := range table.Methods() {
		if _, ok := table.Get(method); !ok {
			t.Fatalf("inconsistent table for %s", method)
		}
	}
	// options/scope.proto declares no services, but make sure nothing from
	// under options/ leaked in under any name.
	if table.Len() != 6 {
		t.Errorf("Len() = %d, want 6", table.Len())
	}
}

func TestExtract_MissingDir(t *testing.T) {
	if _, err := Extract(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestExtract_DuplicateMethodLastWins(t *testing.T) {
	dir := t.TempDir()
	src := `package x.y;
service S {
  rpc A(Req) returns (Res) {
    option (required_scope) = {
      resource: RESOURCE_TYPE_SITE
      level: ACCESS_LEVEL_READ
    };
  }
  rpc A(Req) returns (Res) {
    option (required_scope) = {
      resource: RESOURCE_TYPE_SITE
      level: ACCESS_LEVEL_ADMIN
    };
  }
}
`
	if err := os.WriteFile(filepath.Join(dir, "dup.proto"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Extract(dir)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	fact, _ := table.Get("x.y.S/A")
	if fact.Level != model.AccessAdmin {
		t.Errorf("duplicate method: level = %s, want last writer ACCESS_LEVEL_ADMIN", fact.Level)
	}
}
