package models

// ErrorKind classifies failures so callers can decide between retrying,
// refetching, or keeping the user's input for correction.
type ErrorKind string

const (
	KindInvalidBidTerms       ErrorKind = "InvalidBidTerms"       // malformed discount or MRP
	KindBidTooLow             ErrorKind = "BidTooLow"             // fails to beat the current bid
	KindAlreadyTerminal       ErrorKind = "AlreadyTerminal"       // operating on a cancelled/completed entity
	KindRequestNoLongerActive ErrorKind = "RequestNoLongerActive" // accept race lost
	KindSyncConflict          ErrorKind = "SyncConflict"          // stale base state on cart sync
	KindTransientFailure      ErrorKind = "TransientFailure"      // network/5xx, retryable
	KindUnauthorized          ErrorKind = "Unauthorized"
)

// ErrorResponse describes a failure with its kind, HTTP status and message.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind,omitempty"`
	Message    string    `json:"reason"`
}

// NewErrorResponse creates an error with a status code and message.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// NewKindError creates an error carrying an explicit kind from the taxonomy.
func NewKindError(kind ErrorKind, statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message}
}

// Error satisfies the error interface.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// KindOf extracts the ErrorKind from an error, or "" when it carries none.
func KindOf(err error) ErrorKind {
	if resp, ok := err.(*ErrorResponse); ok {
		return resp.Kind
	}
	return ""
}

// IsTransient reports whether an error should be retried with backoff.
// Validation and stale-state conflicts are never transient.
func IsTransient(err error) bool {
	if resp, ok := err.(*ErrorResponse); ok {
		return resp.Kind == KindTransientFailure || resp.StatusCode >= 500
	}
	return false
}
