package docs_test

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vutto/pricing-service/docs"
	"github.com/vutto/pricing-service/internal/handlers"
	"github.com/vutto/pricing-service/internal/pricing"
	"github.com/vutto/pricing-service/internal/revision"
)

type openAPI struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	BasePath    string                          `json:"basePath"`
	Paths       map[string]map[string]operation `json:"paths"`
	Definitions map[string]definition           `json:"definitions"`
}

type operation struct {
	Tags       []string                   `json:"tags"`
	Parameters []parameter                `json:"parameters"`
	Responses  map[string]json.RawMessage `json:"responses"`
}

type parameter struct {
	Name   string `json:"name"`
	In     string `json:"in"`
	Schema struct {
		Ref string `json:"$ref"`
	} `json:"schema"`
}

type definition struct {
	Required   []string                   `json:"required"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func readDoc(t *testing.T) openAPI {
	t.Helper()
	var doc openAPI
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))
	return doc
}

func TestDoc_Info(t *testing.T) {
	doc := readDoc(t)
	assert.Equal(t, "Pricing Service API", doc.Info.Title)
	assert.Equal(t, "1.0", doc.Info.Version)
	assert.Equal(t, "/", doc.BasePath)
}

func TestDoc_Operations(t *testing.T) {
	doc := readDoc(t)

	tests := []struct {
		path   string
		method string
		tag    string
		body   string
		codes  []string
	}{
		{"/internal/engine/bike/list", "get", "engine", "", []string{"200", "500"}},
		{"/internal/engine/bike/used-price", "post", "engine", "pricing.QuoteRequest", []string{"200"}},
		{"/internal/engine/margin/all", "get", "margins", "", []string{"200"}},
		{"/internal/engine/margin/update", "post", "margins", "handlers.UpdateMarginRequest", []string{"200"}},
		{"/internal/engine/variant/identify", "post", "variants", "handlers.IdentifyRequest", []string{"200"}},
		{"/internal/engine/model/warnings", "get", "inventory", "", []string{"200"}},
		{"/internal/engine/year/warnings", "get", "inventory", "", []string{"200"}},
		{"/internal/revision/listing", "post", "revision", "handlers.ListingRequest", []string{"200"}},
		{"/internal/revision/manual", "post", "revision", "handlers.ManualRequest", []string{"200"}},
		{"/internal/revision/status", "post", "revision", "revision.ChangeStatusInput", []string{"200", "400", "404"}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			op, ok := doc.Paths[tt.path][tt.method]
			require.True(t, ok, "operation not documented")
			assert.Equal(t, []string{tt.tag}, op.Tags)
			for _, code := range tt.codes {
				assert.Contains(t, op.Responses, code)
			}

			var body string
			for _, p := range op.Parameters {
				if p.In == "body" {
					body = strings.TrimPrefix(p.Schema.Ref, "#/definitions/")
				}
			}
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestDoc_ReferencesResolve(t *testing.T) {
	doc := readDoc(t)
	for path, methods := range doc.Paths {
		for method, op := range methods {
			for _, p := range op.Parameters {
				if p.Schema.Ref == "" {
					continue
				}
				name := strings.TrimPrefix(p.Schema.Ref, "#/definitions/")
				assert.Contains(t, doc.Definitions, name, "%s %s", method, path)
			}
		}
	}
}

// Request bodies are documented by hand, so they drift when a struct gains
// or renames a field.
func TestDoc_DefinitionsMatchRequestTypes(t *testing.T) {
	doc := readDoc(t)

	tests := []struct {
		name string
		v    any
	}{
		{"pricing.QuoteRequest", pricing.QuoteRequest{}},
		{"handlers.UpdateMarginRequest", handlers.UpdateMarginRequest{}},
		{"handlers.IdentifyRequest", handlers.IdentifyRequest{}},
		{"handlers.ListingRequest", handlers.ListingRequest{}},
		{"handlers.ManualRequest", handlers.ManualRequest{}},
		{"revision.ChangeStatusInput", revision.ChangeStatusInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := doc.Definitions[tt.name]
			require.True(t, ok, "definition missing")

			fields, required := jsonFields(reflect.TypeOf(tt.v))
			documented := make([]string, 0, len(def.Properties))
			for name := range def.Properties {
				documented = append(documented, name)
			}
			sort.Strings(documented)
			sort.Strings(def.Required)

			assert.Equal(t, fields, documented)
			assert.Equal(t, required, nilIfEmpty(def.Required))
		})
	}
}

// jsonFields lists the JSON names of a struct, flattening embedded structs,
// and the subset gin binds as required.
func jsonFields(t reflect.Type) (fields, required []string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			nested, nestedRequired := jsonFields(f.Type)
			fields = append(fields, nested...)
			required = append(required, nestedRequired...)
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields = append(fields, name)
		if strings.Contains(f.Tag.Get("binding"), "required") {
			required = append(required, name)
		}
	}
	sort.Strings(fields)
	sort.Strings(required)
	return fields, required
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
