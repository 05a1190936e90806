package admission

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/schedule"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultTickInterval = time.Second
)

// ErrClosed is returned by calls made after Run has returned.
var ErrClosed = errors.New("admission session closed")

// API is the subset of the backend the controller needs.
type API interface {
	schedule.Fetcher
	ValidateRegistration(ctx context.Context, number string) (*model.RegistrationRecord, error)
	StartExam(ctx context.Context, number string) (json.RawMessage, error)
}

// Handoff is passed to the exam screen once the backend accepted the start.
type Handoff struct {
	Candidate model.RegistrationRecord
	Exam      model.ExamSchedule
	StartsAt  time.Time
	Payload   json.RawMessage
}

// Navigator moves the candidate into the live exam.
type Navigator interface {
	EnterExam(ctx context.Context, h Handoff) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, h Handoff) error

func (f NavigatorFunc) EnterExam(ctx context.Context, h Handoff) error { return f(ctx, h) }

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	PollInterval  time.Duration
	TickInterval  time.Duration
	WindowMinutes int
	// OnChange is called on the event loop after every state change.
	OnChange func(State)
	// OnAlert is called on the event loop when the start-exam call fails.
	OnAlert func(error)
}

type submitRequest struct {
	number string
	reply  chan error
}

// Controller owns one admission Session and drives it from a single event
// loop: schedule polls, countdown ticks, submits and network completions are
// handled one at a time, so the Session needs no locking.
type Controller struct {
	api   API
	clock clock.Source
	nav   Navigator
	opts  Options
	log   zerolog.Logger

	session     *Session
	submits     chan submitRequest
	snapshots   chan chan State
	completions chan func() bool
	done        chan struct{}

	polling bool
	navErr  error
}

// NewController wires a Controller. A nil src uses the system clock.
func NewController(api API, src clock.Source, nav Navigator, opts Options, log zerolog.Logger) *Controller {
	if src == nil {
		src = clock.System{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Controller{
		api:         api,
		clock:       src,
		nav:         nav,
		opts:        opts,
		log:         log.With().Str("component", "admission").Logger(),
		session:     NewSession(opts.WindowMinutes),
		submits:     make(chan submitRequest),
		snapshots:   make(chan chan State),
		completions: make(chan func() bool),
		done:        make(chan struct{}),
	}
}

// Run drives the session until ctx is cancelled or the candidate has been
// handed off to the exam screen. It returns nil after a hand-off, the
// navigator's error if it failed, or ctx.Err(). Run must be called once.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(c.done)

	pollTicker := time.NewTicker(c.opts.PollInterval)
	defer pollTicker.Stop()
	tickTicker := time.NewTicker(c.opts.TickInterval)
	defer tickTicker.Stop()

	c.log.Info().
		Dur("poll_interval", c.opts.PollInterval).
		Dur("tick_interval", c.opts.TickInterval).
		Msg("Admission session started")

	c.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Admission session closed")
			return ctx.Err()
		case <-pollTicker.C:
			c.poll(ctx)
		case <-tickTicker.C:
			c.tick(ctx)
		case req := <-c.submits:
			c.submit(ctx, req)
		case reply := <-c.snapshots:
			reply <- c.session.State()
		case fn := <-c.completions:
			if fn() {
				return c.navErr
			}
		}
	}
}

// Submit validates a registration number and blocks until the backend has
// answered. Rejections that need no network call return immediately.
func (c *Controller) Submit(ctx context.Context, number string) error {
	req := submitRequest{number: number, reply: make(chan error, 1)}
	select {
	case c.submits <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	select {
	case c.snapshots <- reply:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-c.done:
		return State{}, ErrClosed
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// post hands a completion back to the loop. Completions for a session that
// has already been torn down are dropped.
func (c *Controller) post(ctx context.Context, fn func() bool) {
	select {
	case c.completions <- fn:
	case <-ctx.Done():
	}
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.session.State())
	}
}

func (c *Controller) poll(ctx context.Context) {
	if c.polling {
		return
	}
	c.polling = true

	go func() {
		exams, err := schedule.Fetch(ctx, c.api)
		c.post(ctx, func() bool {
			c.polling = false
			if err != nil {
				c.log.Warn().Err(err).Msg("Schedule fetch failed")
				c.session.ScheduleFailed(err)
				c.changed()
				return false
			}

			act, skipped := c.session.ApplySchedule(exams, c.clock.Now())
			for _, s := range skipped {
				c.log.Debug().Err(s.Err).Str("exam_id", s.Exam.ID).Msg("Skipping exam with malformed schedule")
			}
			c.changed()
			if act == ActionAdmit {
				c.admit(ctx)
			}
			return false
		})
	}()
}

func (c *Controller) tick(ctx context.Context) {
	act := c.session.Tick(c.clock.Now())
	c.changed()
	if act == ActionAdmit {
		c.admit(ctx)
	}
}

func (c *Controller) submit(ctx context.Context, req submitRequest) {
	number, err := c.session.BeginValidation(req.number, c.clock.Now())
	c.changed()
	if err != nil {
		c.log.Debug().Err(err).Msg("Registration rejected locally")
		req.reply <- err
		return
	}

	go func() {
		rec, err := c.api.ValidateRegistration(ctx, number)
		c.post(ctx, func() bool {
			act, verr := c.session.CompleteValidation(rec, err, c.clock.Now())
			if verr != nil {
				c.log.Info().Err(verr).Str("registration_number", number).Msg("Registration rejected")
			} else {
				c.log.Info().Str("registration_number", number).Msg("Registration confirmed")
			}
			c.changed()
			req.reply <- verr
			if act == ActionAdmit {
				c.admit(ctx)
			}
			return false
		})
	}()
}

// admit issues the start-exam call. The Session guarantees it is reached at
// most once per confirmed registration.
func (c *Controller) admit(ctx context.Context) {
	st := c.session.State()
	if st.RegisteredInfo == nil {
		return
	}
	rec := *st.RegisteredInfo
	h := Handoff{Candidate: rec}
	if st.SelectedExam != nil {
		h.Exam = st.SelectedExam.Exam
		h.StartsAt = st.SelectedExam.Start
	}

	c.log.Info().
		Str("registration_number", rec.RegistrationNumber).
		Str("exam_id", h.Exam.ID).
		Msg("Starting exam")

	go func() {
		payload, err := c.api.StartExam(ctx, rec.RegistrationNumber)
		c.post(ctx, func() bool {
			if aerr := c.session.CompleteAdmission(rec.RegistrationNumber, err); aerr != nil {
				c.log.Error().Err(aerr).Msg("Start exam failed, registration rolled back")
				c.changed()
				if c.opts.OnAlert != nil {
					c.opts.OnAlert(aerr)
				}
				return false
			}

			c.changed()
			h.Payload = payload
			if c.nav != nil {
				c.navErr = c.nav.EnterExam(ctx, h)
			}
			return true
		})
	}()
}
