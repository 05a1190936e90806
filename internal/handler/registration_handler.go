package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/repository"
	"github.com/arnexam/exam-admission/internal/response"
	"github.com/arnexam/exam-admission/internal/service"
	"github.com/arnexam/exam-admission/internal/validator"
)

// RegistrationHandler serves registration validation and exam start.
type RegistrationHandler struct {
	registrationService *service.RegistrationService
	log                 zerolog.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrationService *service.RegistrationService, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		log:                 log.With().Str("component", "registration_handler").Logger(),
	}
}

// ValidateRegistration godoc
// POST /api/validate-registration
// Returns the candidate record (with its used flag) or {error}.
func (h *RegistrationHandler) ValidateRegistration(c *gin.Context) {
	var req model.RegistrationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.registrationService.Validate(c.Request.Context(), req.RegistrationNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Object(c, http.StatusOK, rec)
}

// StartExam godoc
// POST /api/start-exam
// Consumes the registration number; a second call answers 409.
func (h *RegistrationHandler) StartExam(c *gin.Context) {
	var req model.RegistrationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.registrationService.StartExam(c.Request.Context(), req.RegistrationNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Object(c, http.StatusOK, res)
}

func (h *RegistrationHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRegistrationNotFound)
	case errors.Is(err, repository.ErrAlreadyUsed):
		response.Fail(c, http.StatusConflict, response.ErrRegistrationUsed)
	default:
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Registration request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
