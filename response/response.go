// Package response writes the JSON envelope every API route answers with.
package response

import "github.com/gin-gonic/gin"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func Send(c *gin.Context, code int, status, message string, data any) {
	c.JSON(code, Envelope{Code: code, Status: status, Message: message, Data: data})
}

func Success(c *gin.Context, code int, message string, data any) {
	Send(c, code, StatusSuccess, message, data)
}

func Error(c *gin.Context, code int, message string) {
	Send(c, code, StatusError, message, nil)
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Envelope{Code: code, Status: StatusError, Message: message})
}
