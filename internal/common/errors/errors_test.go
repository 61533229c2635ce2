package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_ErrorIncludesContext(t *testing.T) {
	err := NewQuoteNotFoundError("q-404").WithMetadata("stage", "FetchQuote")

	msg := err.Error()
	assert.Contains(t, msg, "QUOTE_NOT_FOUND")
	assert.Contains(t, msg, "quoteId=q-404")
	assert.Contains(t, msg, "stage=FetchQuote")
}

func TestWithMetadata_DoesNotMutateOriginal(t *testing.T) {
	base := NewStoreReadError("postgres", fmt.Errorf("conn refused"))
	tagged := base.WithMetadata("workflow", "reoptimize")

	_, has := base.Metadata["workflow"]
	assert.False(t, has)
	assert.Equal(t, "reoptimize", tagged.Metadata["workflow"])
	assert.Equal(t, "postgres", tagged.Metadata["store"])
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := fmt.Errorf("fetch quote: %w", NewStoreReadError("postgres", cause))

	assert.True(t, HasCode(err, ErrCodeStoreReadFailed))
	assert.False(t, HasCode(err, ErrCodeQuoteNotFound))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeInternal))
}

func TestSentinels_MatchByCode(t *testing.T) {
	err := fmt.Errorf("reoptimize: %w", NewQuoteNotFoundError("q-1").WithMetadata("stage", "FetchQuote"))

	assert.True(t, stderrors.Is(err, ErrQuoteNotFound))
	assert.False(t, stderrors.Is(err, ErrCustomerNotFound))
	assert.False(t, stderrors.Is(stderrors.New("plain"), ErrQuoteNotFound))
}

func TestNormalize(t *testing.T) {
	std := NewInvalidInputError("customerId is required")
	assert.Same(t, std, Normalize(std))

	n := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.Equal(t, "boom", n.Details)
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeStoreReadFailed, 3},
		{ErrCodeOracleRequestFailed, 3},
		{ErrCodeOracleTimeout, 1},
		{ErrCodeQuoteNotFound, 0},
		{ErrCodeInvalidInput, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	std := NewQuoteNotFoundError("q-1").WithMetadata("workflow", "reoptimize")

	bpmn := ConvertToBPMNError(std)
	require.NotNil(t, bpmn)
	assert.Equal(t, "QUOTE_NOT_FOUND", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
	assert.False(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "QUOTE_NOT_FOUND", vars["originalErrorCode"])
	assert.Equal(t, "q-1", vars["quoteId"])
	assert.Equal(t, "reoptimize", vars["workflow"])
}

func TestConvertToBPMNError_UnmappedCodeFallsBack(t *testing.T) {
	std := &StandardError{Code: "SOMETHING_NEW", Message: "m"}
	assert.Equal(t, "SOMETHING_NEW", ConvertToBPMNError(std).Code)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "not_found", GetErrorCategory(ErrCodeQuoteNotFound))
	assert.Equal(t, "store", GetErrorCategory(ErrCodeStoreWriteFailed))
	assert.Equal(t, "oracle", GetErrorCategory(ErrCodeOracleTimeout))
	assert.Equal(t, "internal", GetErrorCategory("UNKNOWN"))
}

func TestAnnotate(t *testing.T) {
	sentinel := stderrors.New("OPTIMIZATION_FAILED")
	cause := fmt.Errorf("%w: %w", sentinel, NewOracleRequestError(stderrors.New("502")))

	annotated := Annotate(cause, map[string]interface{}{"workflow": "new_quote", "stage": "optimize_pricing"})
	assert.Equal(t, ErrCodeOracleRequestFailed, annotated.Code)
	assert.Equal(t, "optimize_pricing", annotated.Metadata["stage"])
	assert.True(t, stderrors.Is(annotated, sentinel), "original chain is still reachable")

	plain := Annotate(stderrors.New("boom"), map[string]interface{}{"quoteId": "q-1"})
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "q-1", plain.Metadata["quoteId"])
}
