package types

// SuccessEnvelope wraps every successful API payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the body of every non-2xx API response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the client-facing error shape. Details is only populated
// for error codes that allow structured detail passthrough.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
