package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Created answers a request that stored a picture.
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Accepted answers a request whose work was queued.
func Accepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
