// internal/workers/quote/process-quote-request/validation.go
package processquoterequest

import "quotegenius/internal/common/validation"

var InputSchema = validation.MustCompile("process_quote_request", `{
  "type": "object",
  "required": ["request"],
  "properties": {
    "request": {
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
              "name": {"type": "string", "minLength": 1},
              "quantity": {"type": "number", "minimum": 0},
              "unit": {"type": "string"}
            }
          }
        },
        "laborHours": {"type": ["number", "null"], "minimum": 0},
        "deadline": {"type": "string"},
        "specialRequirements": {"type": "string"}
      }
    }
  }
}`)
