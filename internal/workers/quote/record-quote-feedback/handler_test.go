// internal/workers/quote/record-quote-feedback/handler_test.go
package recordquotefeedback

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quotegenius/internal/common/camunda"
	"quotegenius/internal/common/config"
	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
)

type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) ProcessFeedback(ctx context.Context, fb models.Feedback) (*models.FeedbackAck, error) {
	args := m.Called(ctx, fb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackAck), args.Error(1)
}

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                3001,
		Type:               TaskType,
		ProcessInstanceKey: 30010,
		BpmnProcessId:      "quote-feedback-process",
		ElementId:          "Activity_RecordQuoteFeedback",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, coordinator Coordinator) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(config.WorkerConfig{}), coordinator, camunda.NewJobs(nil, log), log)
}

func TestDecodeVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables map[string]interface{}
		want      Input
		wantErr   bool
	}{
		{
			name:      "accepted with text",
			variables: map[string]interface{}{"quoteId": "q-1", "accepted": true, "feedback": "Great price"},
			want:      Input{QuoteID: "q-1", Accepted: true, Feedback: "Great price"},
		},
		{
			name:      "rejected without text",
			variables: map[string]interface{}{"quoteId": "q-1", "accepted": false},
			want:      Input{QuoteID: "q-1"},
		},
		{
			name:      "accepted must be boolean",
			variables: map[string]interface{}{"quoteId": "q-1", "accepted": "yes"},
			wantErr:   true,
		},
		{
			name:      "accepted is required",
			variables: map[string]interface{}{"quoteId": "q-1"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input Input
			err := camunda.DecodeVariables(createMockJob(tt.variables), InputSchema, &input)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input)
		})
	}
}

func TestExecute(t *testing.T) {
	coordinator := new(MockCoordinator)
	coordinator.On("ProcessFeedback", mock.Anything, models.Feedback{QuoteID: "q-1", Accepted: true, Text: "ok"}).
		Return(&models.FeedbackAck{Status: "success", QuoteID: "q-1", QuoteStatus: models.QuoteStatusAccepted}, nil)

	out, err := createTestHandler(t, coordinator).Execute(context.Background(), &Input{QuoteID: "q-1", Accepted: true, Feedback: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, out.QuoteStatus)
	assert.Equal(t, "success", out.Ack.Status)
	coordinator.AssertExpectations(t)
}

func TestExecute_UnknownQuote(t *testing.T) {
	coordinator := new(MockCoordinator)
	coordinator.On("ProcessFeedback", mock.Anything, mock.Anything).Return(nil, apperrors.NewQuoteNotFoundError("q-404"))

	_, err := createTestHandler(t, coordinator).Execute(context.Background(), &Input{QuoteID: "q-404"})
	assert.ErrorIs(t, err, ErrFeedbackFailed)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQuoteNotFound))
}
