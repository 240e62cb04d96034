package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/service"
	"github.com/aquagas/utility-readings-service/internal/validator"
)

// Wire error codes. Stable contract: clients switch on these, not on the
// descriptions.
const (
	codeInvalidData      = "INVALID_DATA"
	codeNotFound         = "NOT_FOUND"
	codeAlreadyConfirmed = "ALREADY_CONFIRMED"
	codeInternalError    = "INTERNAL_ERROR"
)

const (
	descInvalidData      = "The data provided in the request body is invalid"
	descInvalidType      = "Invalid measure type"
	descNotFound         = "Reading code not found"
	descAlreadyConfirmed = "Reading code has already been confirmed"
	descInternalError    = "Internal server error"
)

// errorResponse is the uniform error body
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// confirmRequest is the PATCH /confirm body. Fields are pointers so a
// missing field fails validation instead of arriving as a zero value; a
// field of the wrong JSON type fails decoding outright.
type confirmRequest struct {
	MeasureUUID    *string  `json:"measure_uuid"`
	ConfirmedValue *float64 `json:"confirmed_value"`
}

// Handler exposes the readings service over HTTP
type Handler struct {
	readings  *service.ReadingsService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(readings *service.ReadingsService, validator *validator.Validator, logger *zap.Logger) *Handler {
	return &Handler{
		readings:  readings,
		validator: validator,
		logger:    logger,
	}
}

// Register attaches the routes to the engine
func (h *Handler) Register(router *gin.Engine) {
	router.PATCH("/confirm", h.ConfirmReading)
	router.GET("/:customer_code/list", h.ListReadings)
}

// ConfirmReading handles PATCH /confirm
func (h *Handler) ConfirmReading(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, codeInvalidData, descInvalidData)
		return
	}

	if result := h.validator.ValidateConfirmInput(req.MeasureUUID, req.ConfirmedValue); !result.IsValid {
		h.writeError(c, http.StatusBadRequest, codeInvalidData, descInvalidData)
		return
	}

	err := h.readings.ConfirmReading(c.Request.Context(), *req.MeasureUUID, *req.ConfirmedValue)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OK"})
	case errors.Is(err, service.ErrNotFound):
		h.writeError(c, http.StatusNotFound, codeNotFound, descNotFound)
	case errors.Is(err, service.ErrAlreadyConfirmed):
		h.writeError(c, http.StatusConflict, codeAlreadyConfirmed, descAlreadyConfirmed)
	default:
		h.internalError(c, "failed to confirm reading", err)
	}
}

// ListReadings handles GET /:customer_code/list. An unknown customer and a
// customer with zero matching readings both yield NOT_FOUND; the store does
// not tell them apart.
func (h *Handler) ListReadings(c *gin.Context) {
	customerCode := c.Param("customer_code")
	measureType := c.Query("measure_type")

	list, err := h.readings.ListReadings(c.Request.Context(), customerCode, measureType)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, list)
	case errors.Is(err, service.ErrInvalidData):
		h.writeError(c, http.StatusBadRequest, codeInvalidData, descInvalidType)
	case errors.Is(err, service.ErrNotFound):
		h.writeError(c, http.StatusNotFound, codeNotFound, descNotFound)
	default:
		h.internalError(c, "failed to list readings", err)
	}
}

func (h *Handler) writeError(c *gin.Context, status int, code, description string) {
	c.JSON(status, errorResponse{
		ErrorCode:        code,
		ErrorDescription: description,
	})
}

// internalError logs the cause server-side and returns a generic body; the
// caller never sees store internals.
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	loggerFrom(c, h.logger).Error(msg,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	h.writeError(c, http.StatusInternalServerError, codeInternalError, descInternalError)
}
