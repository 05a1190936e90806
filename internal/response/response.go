package response

import (
	"github.com/gin-gonic/gin"
)

// ListResponse is the {success, data} envelope of list endpoints.
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// ErrorBody is the flat error shape of object endpoints.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   ErrCode           `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// List sends a successful list envelope.
func List(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, ListResponse{Success: true, Data: data})
}

// ListFail sends a failed list envelope.
func ListFail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ListResponse{Success: false, Data: []interface{}{}, Error: GetMessage(code)})
}

// Object sends obj as a flat JSON object.
func Object(c *gin.Context, statusCode int, obj interface{}) {
	c.JSON(statusCode, obj)
}

// Fail sends a flat {error, code} response.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code})
}

// FailWithFields sends a flat error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code, Fields: fields})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code})
}
