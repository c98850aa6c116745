package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponse returns a JSON response with a success message with no type limitation
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(
		http.StatusOK,
		NewResponse(
			true,
			http.StatusOK,
			extras,
		))
}

// CreatedResponse is SuccessResponse with 201 Created.
func CreatedResponse(c *gin.Context, extras any) {
	c.JSON(
		http.StatusCreated,
		NewResponse(
			true,
			http.StatusCreated,
			extras,
		))
}

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, NewError(code, message))
}

// AbortResponse writes an error envelope and stops the handler chain.
func AbortResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewError(code, message))
}
