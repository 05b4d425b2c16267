package handlers

const (
	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidChildID      = "Invalid child id"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
)
