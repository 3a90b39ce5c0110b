package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kiosk-sections-backend/internal/logger"
	"kiosk-sections-backend/internal/store"
)

// Error types echoed in 500 responses.
const (
	errorTypeConstraint = "ConstraintViolation"
	errorTypeInternal   = "InternalError"
)

// badRequestError is a client mistake whose message is safe to return as is.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// notFoundError names the entity a lookup missed, so the response message
// does not depend on which store call reported the miss.
type notFoundError struct {
	entity string
}

func (e *notFoundError) Error() string { return e.entity + " not found" }

func (e *notFoundError) Is(target error) bool { return target == store.ErrNotFound }

// missing rewrites a store miss into a not-found error for entity. Other
// errors are returned unchanged.
func missing(entity string, err error) error {
	var nf *notFoundError
	if errors.As(err, &nf) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return &notFoundError{entity: entity}
	}
	return err
}

// respond writes a success envelope carrying the given fields.
func respond(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

// respondError maps err onto a failure envelope. Only messages that are safe
// for clients are returned; anything unexpected is logged and reported as a
// generic internal error.
func respondError(c *gin.Context, err error) {
	var (
		br *badRequestError
		nf *notFoundError
	)
	switch {
	case errors.As(err, &br):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": br.msg})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": nf.Error()})
	case errors.Is(err, store.ErrConstraintViolation):
		logger.FromGin(c).Info("constraint violation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    "Section ID must be unique",
			"error_type": errorTypeConstraint,
		})
	default:
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    "Internal server error",
			"error_type": errorTypeInternal,
		})
	}
}
