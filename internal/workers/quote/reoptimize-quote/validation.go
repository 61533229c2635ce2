// internal/workers/quote/reoptimize-quote/validation.go
package reoptimizequote

import "quotegenius/internal/common/validation"

var InputSchema = validation.MustCompile("reoptimize_quote", `{
  "type": "object",
  "required": ["quoteId"],
  "properties": {
    "quoteId": {"type": "string", "minLength": 1}
  }
}`)
