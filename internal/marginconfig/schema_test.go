package marginconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"type":"array"`)
	assert.Contains(t, s, `"range low"`)
	assert.Contains(t, s, `"MSP Discount (New Listing)"`)
	assert.NotContains(t, s, `"$schema"`)
}

func TestValidate(t *testing.T) {
	t.Run("accepts numbers and sheet strings", func(t *testing.T) {
		err := Validate([]Row{
			{"fuel": "PETROL", "pace": "FAST", "range low": 0.0, "range high": "50,000", "markup %": "12%"},
			{"fuel": "PETROL", "pace": "FAST", "range low": 50001.0, "range high": 100000.0, "revision_7_markup": 0.9},
		})
		assert.NoError(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		assert.NoError(t, Validate(nil))
	})

	t.Run("missing required column", func(t *testing.T) {
		err := Validate([]Row{{"fuel": "PETROL", "range low": 0.0, "range high": 10.0}})
		var invalid ErrInvalidDocument
		require.ErrorAs(t, err, &invalid)
		assert.NotEmpty(t, invalid.Problems)
	})

	t.Run("wrong cell type", func(t *testing.T) {
		err := Validate([]Row{{"fuel": "PETROL", "pace": "FAST", "range low": true, "range high": 10.0}})
		var invalid ErrInvalidDocument
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("range bounds", func(t *testing.T) {
		err := Validate([]Row{
			{"fuel": "PETROL", "pace": "FAST", "range low": "abc", "range high": 10.0},
			{"fuel": "PETROL", "pace": "FAST", "range low": 20.0, "range high": 10.0},
		})
		var invalid ErrInvalidDocument
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, []string{
			"row 1: range low and range high must be numbers",
			"row 2: range low is above range high",
		}, invalid.Problems)
	})
}

func TestRolesFor(t *testing.T) {
	roles := map[string][]string{
		"REVISE_PRICE":  {"ops@vutto.in", "Pricing@Vutto.in"},
		"EDIT_MARGINS":  {"pricing@vutto.in"},
		"VIEW_WARNINGS": {"ops@vutto.in"},
	}

	assert.Equal(t, []string{"EDIT_MARGINS", "REVISE_PRICE"}, RolesFor(roles, "pricing@vutto.in"))
	assert.Equal(t, []string{}, RolesFor(roles, "nobody@vutto.in"))
	assert.Equal(t, []string{}, RolesFor(nil, "ops@vutto.in"))
}
