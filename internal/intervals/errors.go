package intervals

import "fmt"

// UploadErrorKind classifies a failed event upsert.
type UploadErrorKind int

const (
	// UploadTransport is a network-level failure.
	UploadTransport UploadErrorKind = iota
	// UploadRateLimited means the service kept returning 429 through retries.
	UploadRateLimited
	// UploadRejectedDuplicate means the service refused the external id.
	UploadRejectedDuplicate
	// UploadMalformed means the service rejected the payload itself.
	UploadMalformed
	// UploadAuthFailed means the API key was rejected; retrying cannot help.
	UploadAuthFailed
	// UploadServerError is a 5xx that survived all retries.
	UploadServerError
)

func (k UploadErrorKind) String() string {
	switch k {
	case UploadTransport:
		return "transport"
	case UploadRateLimited:
		return "rate-limited"
	case UploadRejectedDuplicate:
		return "rejected-duplicate"
	case UploadMalformed:
		return "malformed"
	case UploadAuthFailed:
		return "auth-failed"
	case UploadServerError:
		return "server-error"
	default:
		return "unknown"
	}
}

// UploadError is the typed failure for one workout's upload.
type UploadError struct {
	Kind       UploadErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload %s: %v", e.Kind, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("upload %s (status %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upload %s (status %d)", e.Kind, e.StatusCode)
}

func (e *UploadError) Unwrap() error { return e.Err }

func classifyStatus(status int, body []byte) *UploadError {
	kind := UploadMalformed
	switch {
	case status == 401 || status == 403:
		kind = UploadAuthFailed
	case status == 409:
		kind = UploadRejectedDuplicate
	case status == 429:
		kind = UploadRateLimited
	case status >= 500:
		kind = UploadServerError
	}
	return &UploadError{Kind: kind, StatusCode: status, Body: string(body)}
}
