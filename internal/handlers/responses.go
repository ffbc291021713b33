package handlers

// ErrorBody is the code/message pair nested in every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for all error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// MessageResponse is a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
