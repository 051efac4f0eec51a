package marginconfig

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/vutto/pricing-service/internal/pricing"
)

// TierRow documents the known columns of a margin document row. Cells may be
// numbers or numeric strings as exported by the sheet. Revision coefficient
// columns (revision_<day>_markup, revision_<day>_margin) are additional
// properties.
type TierRow struct {
	Fuel               string `json:"fuel" jsonschema:"required,minLength=1"`
	Pace               string `json:"pace" jsonschema:"required,minLength=1"`
	VehicleType        string `json:"vehicle type,omitempty"`
	RangeLow           any    `json:"range low" jsonschema:"required,oneof_type=number;string"`
	RangeHigh          any    `json:"range high" jsonschema:"required,oneof_type=number;string"`
	AbsoluteMin        any    `json:"absolute min,omitempty" jsonschema:"oneof_type=number;string"`
	AbsoluteMax        any    `json:"absolute max,omitempty" jsonschema:"oneof_type=number;string"`
	MinPercent         any    `json:"min percent,omitempty" jsonschema:"oneof_type=number;string"`
	AbsoluteMinMarkup  any    `json:"absolute min markup,omitempty" jsonschema:"oneof_type=number;string"`
	MarkupPercent      any    `json:"markup %,omitempty" jsonschema:"oneof_type=number;string"`
	MSPDiscountNew     any    `json:"MSP Discount (New Listing),omitempty" jsonschema:"oneof_type=number;string"`
	MSPDiscountRevised any    `json:"MSP Discount (When revised listing price < calc price),omitempty" jsonschema:"oneof_type=number;string"`
}

// Document is the margin document: tier rows in match order.
type Document []TierRow

// ErrInvalidDocument lists the schema violations of an uploaded document.
type ErrInvalidDocument struct {
	Problems []string
}

func (e ErrInvalidDocument) Error() string {
	return "invalid margin document: " + strings.Join(e.Problems, "; ")
}

var (
	schemaOnce   sync.Once
	schemaJSON   []byte
	schemaLoader *gojsonschema.Schema
	schemaErr    error
)

// Schema returns the JSON schema of the margin document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(Document{})
	s.Version = ""
	s.Title = "Margin document"
	s.Description = "Tiered margin and markup configuration, matched top to bottom by fuel, pace and price range."
	return s
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaJSON, schemaErr = json.Marshal(Schema())
		if schemaErr != nil {
			return
		}
		schemaLoader, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schemaLoader, schemaErr
}

// Validate checks rows against the document schema and rejects rows whose
// range bounds do not parse as numbers.
func Validate(rows []Row) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile margin schema: %w", err)
	}
	if rows == nil {
		rows = []Row{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(rows))
	if err != nil {
		return fmt.Errorf("failed to validate margin document: %w", err)
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	for i, row := range rows {
		tier := pricing.TierFromRow(row)
		if tier.RangeLow == nil || tier.RangeHigh == nil {
			problems = append(problems, fmt.Sprintf("row %d: range low and range high must be numbers", i+1))
			continue
		}
		if *tier.RangeLow > *tier.RangeHigh {
			problems = append(problems, fmt.Sprintf("row %d: range low is above range high", i+1))
		}
	}
	if len(problems) > 0 {
		return ErrInvalidDocument{Problems: problems}
	}
	return nil
}
