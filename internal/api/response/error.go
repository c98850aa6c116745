package response

// ErrorExtras is the extras payload of a failed response.
type ErrorExtras struct {
	Message string `json:"message"`
}

func NewError(code int, message string) Response {
	return NewResponse(false, code, ErrorExtras{Message: message})
}
