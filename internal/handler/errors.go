package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/apperr"
	"github.com/isheraz/stroll-test/internal/cycle"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, cycle.ErrInvalidCycle):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with a client-safe body. Server errors are logged with
// their detail and reported generically.
func writeError(c *gin.Context, log *logrus.Entry, err error, extra gin.H) {
	status := statusFor(err)

	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Error handling request")
		body["error"] = "Internal Server Error"
	} else {
		log.WithError(err).WithField("path", c.Request.URL.Path).Info("Request rejected")
		body["error"] = err.Error()
	}

	c.JSON(status, body)
}

func badRequest(c *gin.Context, log *logrus.Entry, err error) {
	log.WithError(err).WithField("path", c.Request.URL.Path).Info("Bad request")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
