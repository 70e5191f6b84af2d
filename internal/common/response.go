package common

import "github.com/gin-gonic/gin"

// OK writes a 200 response with the given payload.
func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}

// Fail writes the error envelope used by every endpoint:
// {"error": <message>, "code": <machine code>} with a non-2xx status.
func Fail(c *gin.Context, httpStatus int, code string, msg string) {
	c.JSON(httpStatus, gin.H{
		"error": msg,
		"code":  code,
	})
}
