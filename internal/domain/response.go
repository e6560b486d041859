package domain

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the JSON body of requests that succeed without returning a record.
type MessageResponse struct {
	Message string `json:"message"`
}
