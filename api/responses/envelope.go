package responses

// SuccessEnvelope wraps every 2xx payload under a data key so clients can
// unmarshal without sniffing the shape first.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape: a stable machine code, a human
// message, and optional structured details (stock shortages carry the
// per-item breakdown here).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
