// internal/workers/quote/record-quote-feedback/models.go
package recordquotefeedback

import "quotegenius/internal/models"

type Input struct {
	QuoteID  string `json:"quoteId"`
	Accepted bool   `json:"accepted"`
	Feedback string `json:"feedback"`
}

type Output struct {
	QuoteStatus models.QuoteStatus `json:"quoteStatus"`
	Ack         models.FeedbackAck `json:"feedbackAck"`
}
