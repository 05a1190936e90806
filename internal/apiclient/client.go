// Package apiclient talks to the exam backend's admission endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/model"
)

const (
	PathListExams            = "/api/exams/json"
	PathValidateRegistration = "/api/validate-registration"
	PathStartExam            = "/api/start-exam"

	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// StatusError is a non-2xx response or a body carrying {error}.
type StatusError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// BackendMessage returns the backend's error text, possibly empty.
func (e *StatusError) BackendMessage() string { return e.Message }

// BackendCode returns the backend's machine-readable code, possibly empty.
func (e *StatusError) BackendCode() string { return e.Code }

// Client is a thin JSON client for the admission endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client for baseURL (API_BASE_URL).
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// ListExams fetches every exam schedule record.
func (c *Client) ListExams(ctx context.Context) ([]model.ExamSchedule, error) {
	res, err := c.do(ctx, http.MethodGet, PathListExams, nil)
	if err != nil {
		return nil, err
	}

	var body model.ExamListResponse
	if err := json.Unmarshal(res.body, &body); err != nil {
		return nil, fmt.Errorf("decode exam list: %w", err)
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "exam list reported failure"
		}
		return nil, &StatusError{StatusCode: res.status, Message: msg, RequestID: res.requestID}
	}
	return body.Data, nil
}

type validateBody struct {
	model.RegistrationRecord
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ValidateRegistration asks the backend whether number may sit the exam.
func (c *Client) ValidateRegistration(ctx context.Context, number string) (*model.RegistrationRecord, error) {
	res, err := c.do(ctx, http.MethodPost, PathValidateRegistration, model.RegistrationRequest{RegistrationNumber: number})
	if err != nil {
		return nil, err
	}

	var body validateBody
	if err := json.Unmarshal(res.body, &body); err != nil {
		return nil, fmt.Errorf("decode registration: %w", err)
	}
	if body.Error != "" {
		return nil, &StatusError{StatusCode: res.status, Message: body.Error, Code: body.Code, RequestID: res.requestID}
	}
	rec := body.RegistrationRecord
	if rec.RegistrationNumber == "" {
		rec.RegistrationNumber = number
	}
	return &rec, nil
}

// StartExam consumes number on the backend and returns the response body
// untouched for the exam screen.
func (c *Client) StartExam(ctx context.Context, number string) (json.RawMessage, error) {
	res, err := c.do(ctx, http.MethodPost, PathStartExam, model.RegistrationRequest{RegistrationNumber: number})
	if err != nil {
		return nil, err
	}

	var body model.ErrorBody
	if err := json.Unmarshal(res.body, &body); err != nil {
		return nil, fmt.Errorf("decode start exam: %w", err)
	}
	if body.Error != "" {
		return nil, &StatusError{StatusCode: res.status, Message: body.Error, Code: body.Code, RequestID: res.requestID}
	}
	return json.RawMessage(res.body), nil
}

type result struct {
	status    int
	body      []byte
	requestID string
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*result, error) {
	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	reqID := uuid.New().String()
	req.Header.Set(headerRequestID, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("took", time.Since(start)).
		Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, RequestID: reqID}
		var eb model.ErrorBody
		if json.Unmarshal(body, &eb) == nil {
			se.Message = eb.Error
			se.Code = eb.Code
		}
		return nil, se
	}

	return &result{status: resp.StatusCode, body: body, requestID: reqID}, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		r = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(io.LimitReader(r, maxBodyBytes))
}
