package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with, success or not.
type Response struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
	Message *string `json:"message"`
}

func successResponse(data any) Response {
	return Response{Success: true, Data: data}
}

func errorResponse(message string) Response {
	return Response{Success: false, Error: &message}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, successResponse(data))
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse(message))
}

// NotFoundHandler answers unmatched routes with the uniform envelope.
func NotFoundHandler(c *gin.Context) {
	respondError(c, http.StatusNotFound, "Route not found")
}
