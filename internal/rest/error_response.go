package rest

// ErrorResponse is the JSON body returned for 4xx errors that carry more
// context than a bare status text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
