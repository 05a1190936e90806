package model

// RegistrationRecord is the denormalized candidate record returned by
// POST /api/validate-registration.
type RegistrationRecord struct {
	RegistrationNumber string `json:"registrationNumber" yaml:"registrationNumber"`
	Used               bool   `json:"used" yaml:"used"`
	ExamName           string `json:"examName" yaml:"examName"`
	CandidateName      string `json:"candidateName" yaml:"candidateName"`
	District           string `json:"district" yaml:"district"`
	ExamDate           string `json:"examDate" yaml:"examDate"`
	ExamStartTime      string `json:"examStartTime" yaml:"examStartTime"`
	ExamEndTime        string `json:"examEndTime" yaml:"examEndTime"`
}

// RegistrationRequest is the body of both validate-registration and start-exam.
type RegistrationRequest struct {
	RegistrationNumber string `json:"registrationNumber" binding:"required,max=64,printascii"`
}

// StartExamResponse is what the backend returns once a registration has been
// consumed. Clients treat it as an opaque payload for the exam screen.
type StartExamResponse struct {
	Success            bool               `json:"success"`
	RegistrationNumber string             `json:"registrationNumber"`
	StartedAt          string             `json:"startedAt"`
	Candidate          RegistrationRecord `json:"candidate"`
}

// ErrorBody is the flat failure shape of the validate and start endpoints.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
