// internal/common/errors/errors.go

// Package errors provides the error taxonomy shared by the quote pipeline and
// its mapping onto BPMN errors for the Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeQuoteNotFound    ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeCustomerNotFound ErrorCode = "CUSTOMER_NOT_FOUND"

	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeSearchFailed     ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeOracleRequestFailed ErrorCode = "ORACLE_REQUEST_FAILED"
	ErrCodeOracleTimeout       ErrorCode = "ORACLE_TIMEOUT"

	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// DecodeFailed marks a stage payload whose oracle text could not be decoded.
// It is carried in-band on the payload and never raised.
const DecodeFailed = "decode_failed"

// StandardError represents a structured application error. Metadata carries the
// diagnosis context: workflow, stage and quoteId when known.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "StandardError[%s]: %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Metadata[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, " "))
	}
	if e.Details != "" {
		fmt.Fprintf(&b, ": %s", e.Details)
	}
	return b.String()
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches any StandardError carrying the same code, so the sentinels below
// work with errors.Is through wrapping.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

var (
	ErrQuoteNotFound    = &StandardError{Code: ErrCodeQuoteNotFound, Message: "Quote not found"}
	ErrCustomerNotFound = &StandardError{Code: ErrCodeCustomerNotFound, Message: "Customer not found"}
)

// WithMetadata returns a copy of e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	cp := *e
	cp.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// Annotate returns a copy of the StandardError in err's chain (or an internal
// error) with fields merged into its metadata. The copy wraps err, so sentinel
// checks against the original chain still hold.
func Annotate(err error, fields map[string]interface{}) *StandardError {
	base, ok := AsStandardError(err)
	if !ok {
		base = NewInternalError(err)
	}
	cp := *base
	cp.Metadata = make(map[string]interface{}, len(base.Metadata)+len(fields))
	for k, v := range base.Metadata {
		cp.Metadata[k] = v
	}
	for k, v := range fields {
		cp.Metadata[k] = v
	}
	cp.Cause = err
	return &cp
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// BPMNErrorMapping maps internal codes to the error codes caught by boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeQuoteNotFound:          "QUOTE_NOT_FOUND",
	ErrCodeCustomerNotFound:       "CUSTOMER_NOT_FOUND",
	ErrCodeStoreReadFailed:        "STORE_UNAVAILABLE",
	ErrCodeStoreWriteFailed:       "STORE_UNAVAILABLE",
	ErrCodeSearchFailed:           "STORE_UNAVAILABLE",
	ErrCodeOracleRequestFailed:    "ORACLE_UNAVAILABLE",
	ErrCodeOracleTimeout:          "ORACLE_UNAVAILABLE",
	ErrCodeInvalidInput:           "INVALID_QUOTE_INPUT",
	ErrCodeNotificationSendFailed: "NOTIFICATION_FAILED",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// ==========================
// 3. Error Constructors
// ==========================

// NewQuoteNotFoundError is fatal to the requesting workflow and never retried.
func NewQuoteNotFoundError(quoteID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteNotFound,
		Message:   "Quote not found",
		Retryable: false,
		Metadata:  map[string]interface{}{"quoteId": quoteID},
		Timestamp: time.Now().UTC(),
	}
}

func NewCustomerNotFoundError(customerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerNotFound,
		Message:   "Customer not found",
		Retryable: false,
		Metadata:  map[string]interface{}{"customerId": customerID},
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreReadError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   fmt.Sprintf("Failed to read from %s", store),
		Details:   errString(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"store": store},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewStoreWriteError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   fmt.Sprintf("Failed to write to %s", store),
		Details:   errString(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"store": store},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewSearchFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Similarity search failed",
		Details:   errString(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"index": index},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewOracleRequestError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleRequestFailed,
		Message:   "Text generation request failed",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewOracleTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTimeout,
		Message:   "Text generation request timed out",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   fmt.Sprintf("Failed to publish notification via %s", sink),
		Details:   errString(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"sink": sink},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Retry and Classification
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeSearchFailed,
		ErrCodeOracleRequestFailed:
		return 3
	case ErrCodeOracleTimeout:
		return 1
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logs and dashboards.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeQuoteNotFound, ErrCodeCustomerNotFound:
		return "not_found"
	case ErrCodeStoreReadFailed, ErrCodeStoreWriteFailed, ErrCodeSearchFailed:
		return "store"
	case ErrCodeOracleRequestFailed, ErrCodeOracleTimeout:
		return "oracle"
	case ErrCodeInvalidInput:
		return "validation"
	case ErrCodeNotificationSendFailed:
		return "notification"
	default:
		return "internal"
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to the first StandardError in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether any StandardError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
