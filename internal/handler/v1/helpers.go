package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/notification"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/middleware"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/dialogue"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/inference"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// UpstreamErrorResponse keeps the adapter's cause for operators.
type UpstreamErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func respondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps service and domain errors onto the HTTP taxonomy.
// Not-found is returned for records the caller may not see.
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var protectedErr *service.ProtectedAccountError
	if errors.As(err, &protectedErr) {
		respondError(c, http.StatusBadRequest, protectedErr.Message)
		return
	}

	var rejected *inference.RejectedError
	if errors.As(err, &rejected) {
		respondError(c, http.StatusBadRequest, "image rejected by analysis service: "+rejected.Detail)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, report.ErrReportNotFound),
		errors.Is(err, report.ErrPatientNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, report.ErrMissingReportField),
		errors.Is(err, report.ErrInvalidPrediction),
		errors.Is(err, report.ErrInvalidConfidence),
		errors.Is(err, report.ErrImageRequired),
		errors.Is(err, report.ErrUnsupportedImage):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, report.ErrImageTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())

	case errors.Is(err, report.ErrNotReportOwner):
		respondError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())

	case errors.Is(err, service.ErrInvalidOldPassword):
		respondError(c, http.StatusUnauthorized, service.ErrInvalidOldPassword.Error())

	case errors.Is(err, service.ErrInferenceUnavailable):
		c.JSON(http.StatusInternalServerError, UpstreamErrorResponse{
			Error:  service.ErrInferenceUnavailable.Error(),
			Detail: err.Error(),
		})

	case errors.Is(err, service.ErrDialogueUnavailable),
		errors.Is(err, dialogue.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, UpstreamErrorResponse{
			Error:  "failed to get a response from the AI assistant",
			Detail: err.Error(),
		})

	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// actor is only called behind RequireAuth.
func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
