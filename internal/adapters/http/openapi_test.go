package http_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/streetpool/api"
)

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return doc
}

// TestOpenAPISpec validates the embedded OpenAPI document and checks that
// every served route is described.
func TestOpenAPISpec(t *testing.T) {
	doc := loadOpenAPI(t)

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/daily",
		"/v1/daily/{date}",
		"/v1/locations",
		"/v1/corpus/stats",
		"/v1/score",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := doc.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	expectedSchemas := []string{
		"Location",
		"DailySelection",
		"CorpusStats",
		"ScoreRequest",
		"RoundResult",
		"Pagination",
		"APIError",
	}
	for _, schema := range expectedSchemas {
		if doc.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI document valid: %d paths, %d schemas", len(doc.Paths.Map()), len(doc.Components.Schemas))
}

// TestOpenAPIInfo verifies document metadata.
func TestOpenAPIInfo(t *testing.T) {
	doc := loadOpenAPI(t)

	if doc.Info.Title != "Streetpool API" {
		t.Errorf("expected title 'Streetpool API', got %q", doc.Info.Title)
	}
	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}
	if doc.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

// TestDocsServeEmbeddedDocument checks /docs/openapi.yaml serves the embedded bytes.
func TestDocsServeEmbeddedDocument(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/docs/openapi.yaml")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if string(body) != string(api.OpenAPI) {
		t.Error("served document differs from embedded document")
	}
}

// TestDocsServeJSONDocument checks the JSON rendition matches the embedded document.
func TestDocsServeJSONDocument(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, header := get(t, app, "/docs/openapi.json")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if ct := header["Content-Type"]; !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("expected openapi 3.0.3, got %v", doc["openapi"])
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/v1/daily/{date}"]; !ok {
		t.Error("expected /v1/daily/{date} in JSON document")
	}
}

// TestDocsPage checks the docs page points at the JSON document.
func TestDocsPage(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/docs")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), "/docs/openapi.json") {
		t.Error("expected docs page to load /docs/openapi.json")
	}
}
