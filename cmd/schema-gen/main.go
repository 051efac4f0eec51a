// Schema Generator
//
// Generates JSON Schema files for the pricing API types and the margin
// configuration document. Admin tooling validates sheets against them before
// upload.
//
// Usage:
//
//	go run cmd/schema-gen/main.go [output dir]
//
// Output:
//
//	schemas/pricing.json
//	schemas/revision.json
//	schemas/margins.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/vutto/pricing-service/internal/catalog"
	"github.com/vutto/pricing-service/internal/handlers"
	"github.com/vutto/pricing-service/internal/marginconfig"
	"github.com/vutto/pricing-service/internal/pricing"
	"github.com/vutto/pricing-service/internal/revision"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := "schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	groups := []SchemaGroup{
		{
			Name: "pricing",
			Types: []any{
				// Request types
				pricing.QuoteRequest{},
				handlers.VariantRequest{},
				handlers.IdentifyRequest{},
				handlers.UpdateMarginRequest{},
				// Response types
				pricing.Quote{},
				pricing.ProcurementRange{},
				pricing.ModelInventory{},
				catalog.PossibleVariant{},
				catalog.FeatureOptions{},
				catalog.ApplyResult{},
			},
			Output: "pricing.json",
		},
		{
			Name: "revision",
			Types: []any{
				handlers.ListingRequest{},
				handlers.ManualRequest{},
				revision.ChangeStatusInput{},
				revision.PriceRequest{},
				revision.Summary{},
			},
			Output: "revision.json",
		},
	}

	for _, group := range groups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	// The margin document schema is the one uploads are validated against.
	marginsPath := filepath.Join(outputDir, "margins.json")
	if err := writeSchema(marginconfig.Schema(), marginsPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write margins.json: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s\n", marginsPath)

	fmt.Println("Schema generation complete!")
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
	}

	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		typeName := ""
		if schema.Ref != "" {
			// "#/$defs/QuoteRequest"
			typeName = filepath.Base(schema.Ref)
		}

		for name, def := range schema.Definitions {
			definitions[name] = def
		}

		if typeName != "" && schema.Definitions[typeName] != nil {
			definitions[typeName] = schema.Definitions[typeName]
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://vutto.in/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
