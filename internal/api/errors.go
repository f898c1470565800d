package api

import (
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindEligibility, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(code int) service.ErrorKind {
	switch code {
	case http.StatusBadRequest:
		return service.KindValidation
	case http.StatusUnauthorized:
		return service.KindAuthentication
	case http.StatusForbidden:
		return service.KindAuthorization
	case http.StatusNotFound:
		return service.KindNotFound
	default:
		return service.KindInternal
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message, "kind": kindForStatus(code)})
}

// respondError maps a service error to its status. Unclassified errors are
// logged and reported without their cause.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusForKind(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{"method": c.Request.Method, "path": c.Request.URL.Path}).Errorf("request failed: %v", err)
		message = "internal server error"
		kind = service.KindInternal
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "kind": kind})
}

// pathID parses an ObjectID path parameter. A malformed id cannot name an
// existing resource, so it is reported as not found.
func pathID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		abortWithError(c, http.StatusNotFound, param+" not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// bodyID parses an ObjectID taken from a request body field.
func bodyID(c *gin.Context, field, value string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid "+field)
		return primitive.NilObjectID, false
	}
	return id, true
}
