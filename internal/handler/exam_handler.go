package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/response"
	"github.com/arnexam/exam-admission/internal/service"
)

// ExamHandler serves the exam schedule.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/exams/json
// Returns every scheduled exam in a {success, data} envelope.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		response.ListFail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.ExamSchedule{}
	}
	response.List(c, http.StatusOK, exams)
}
