package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Code      int         `json:"code"`
	Mess      string      `json:"mess"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

const requestIDHeader = "X-Request-ID"

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get(requestIDHeader)
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "Success",
		Data: data,
	})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code: 1,
		Mess: "Created",
		Data: data,
	})
}

// Error writes a failure envelope with the given HTTP status.
func Error(c *gin.Context, status int, errorCode, message string) {
	c.JSON(status, Response{
		Code:      0,
		Mess:      message,
		ErrorCode: errorCode,
		RequestID: requestID(c),
	})
}

func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "", "Internal server error")
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "", "Forbidden")
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, "CONFLICT", message)
}

// Unprocessable is used for state errors: the request is valid but the room is in the wrong state.
func Unprocessable(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, "STATE_ERROR", message)
}
