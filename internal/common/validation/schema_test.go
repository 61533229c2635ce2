package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "quotegenius/internal/common/errors"
)

var quoteRequestSchema = MustCompile("quote_request", `{
  "type": "object",
  "required": ["customerId", "projectName", "projectDescription"],
  "properties": {
    "customerId": {"type": "string", "minLength": 1},
    "projectName": {"type": "string", "minLength": 1},
    "projectDescription": {"type": "string", "minLength": 1},
    "materials": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "quantity"],
        "properties": {
          "name": {"type": "string"},
          "quantity": {"type": "number", "minimum": 0}
        }
      }
    },
    "laborHours": {"type": ["number", "null"], "minimum": 0}
  }
}`)

var feedbackSchema = MustCompile("feedback_job", `{
  "type": "object",
  "required": ["quoteId", "accepted"],
  "properties": {
    "quoteId": {"type": "string", "minLength": 1},
    "accepted": {"type": "boolean"}
  }
}`)

func TestSchema_Check(t *testing.T) {
	tests := []struct {
		name       string
		document   string
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "complete request",
			document:  `{"customerId": "cust-101", "projectName": "Valves", "projectDescription": "500 valves", "materials": [{"name": "steel", "quantity": 20, "unit": "kg"}], "laborHours": 320}`,
			wantValid: true,
		},
		{
			name:      "optional fields omitted",
			document:  `{"customerId": "cust-101", "projectName": "Valves", "projectDescription": "500 valves", "laborHours": null}`,
			wantValid: true,
		},
		{
			name:       "missing required fields",
			document:   `{"projectName": "Valves"}`,
			wantFields: []string{"customerId", "projectDescription"},
		},
		{
			name:       "negative quantity",
			document:   `{"customerId": "c", "projectName": "p", "projectDescription": "d", "materials": [{"name": "steel", "quantity": -1}]}`,
			wantFields: []string{"materials.0.quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := quoteRequestSchema.Check([]byte(tt.document))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)

			var fields []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidate_ReturnsInvalidInput(t *testing.T) {
	assert.NoError(t, feedbackSchema.Validate([]byte(`{"quoteId": "q-1", "accepted": true}`)))

	err := feedbackSchema.Validate([]byte(`{"quoteId": "", "accepted": "yes"}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	assert.Contains(t, err.Error(), "feedback_job")

	err = feedbackSchema.Validate([]byte(`not json`))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
}
