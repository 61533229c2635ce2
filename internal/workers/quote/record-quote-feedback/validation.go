// internal/workers/quote/record-quote-feedback/validation.go
package recordquotefeedback

import "quotegenius/internal/common/validation"

var InputSchema = validation.MustCompile("record_quote_feedback", `{
  "type": "object",
  "required": ["quoteId", "accepted"],
  "properties": {
    "quoteId": {"type": "string", "minLength": 1},
    "accepted": {"type": "boolean"},
    "feedback": {"type": "string"}
  }
}`)
