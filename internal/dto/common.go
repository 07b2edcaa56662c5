package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// CountResponse reports how many items an operation changed
type CountResponse struct {
	Count int `json:"count"`
}
