// Package interview implements the conversation state machine that drives a
// candidate screening session from greeting to persistence.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talentscout/screener/internal/observability"
	"github.com/talentscout/screener/internal/question"
	"github.com/talentscout/screener/internal/store"
	"github.com/talentscout/screener/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// exit keywords end the session from any non-terminal state.
var exitKeywords = map[string]struct{}{
	"exit": {},
	"quit": {},
}

// ErrUnknownSession is returned for a session id the manager does not hold.
var ErrUnknownSession = errors.New("unknown session")

// Reply is the outcome of one user turn.
type Reply struct {
	Prompt   string
	State    State
	Terminal bool
}

// Deps aggregates the manager's collaborators.
type Deps struct {
	Logger    *zap.Logger
	Questions *question.Generator
	Store     store.Store
	Metrics   *observability.Metrics
}

// Manager owns all candidate sessions and is the only component that
// mutates them. Sessions are independent; turns within one session are
// serialized by the session lock.
type Manager struct {
	logger    *zap.Logger
	questions *question.Generator
	store     store.Store
	metrics   *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Questions and Store are required; Metrics
// is optional.
func NewManager(deps Deps) *Manager {
	return &Manager{
		logger:    deps.Logger,
		questions: deps.Questions,
		store:     deps.Store,
		metrics:   deps.Metrics,
		sessions:  make(map[string]*Session),
	}
}

// Open creates a new session in the greeting state and returns its id with
// the opening prompt.
func (m *Manager) Open() (string, Reply) {
	s := &Session{
		ID:         uuid.NewString(),
		State:      StateGreeting,
		Assessment: make(map[string][]QA),
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session opened", zap.String("session_id", s.ID))
	}

	return s.ID, Reply{
		Prompt: "Hi there! Welcome to the TalentScout initial screening. Say hello when you're ready to begin.",
		State:  StateGreeting,
	}
}

// Progress reports the completion percentage for a session.
func (m *Manager) Progress(sessionID string) (int, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return 0, ErrUnknownSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Progress(), nil
}

// HandleInput processes one user turn for the session. Validation failures
// and generation outages are recovered in place; the only returned error is
// a persistence failure at a terminal transition, alongside a Reply that is
// still terminal.
func (m *Manager) HandleInput(ctx context.Context, sessionID, raw string) (Reply, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return Reply{}, ErrUnknownSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.metrics != nil {
		m.metrics.Turns.WithLabelValues(s.State.String()).Inc()
	}

	input := strings.TrimSpace(raw)

	if m.logger != nil {
		m.logger.Debug("handling turn",
			zap.String("session_id", s.ID),
			zap.String("state", s.State.String()),
		)
	}

	if s.State.Terminal() {
		return Reply{Prompt: msgSessionClosed, State: s.State, Terminal: true}, nil
	}

	reply, err := m.route(ctx, s, input)
	s.recordTurn(input, reply.Prompt)
	return reply, err
}

func (m *Manager) route(ctx context.Context, s *Session, input string) (Reply, error) {
	if _, ok := exitKeywords[strings.ToLower(input)]; ok {
		return m.handleExit(ctx, s)
	}

	switch s.State {
	case StateGreeting:
		s.State = StateCollectName
		return m.reply(s, greetingMessage(input)), nil
	case StateCollectName, StateCollectEmail, StateCollectPhone,
		StateCollectExperience, StateCollectPosition, StateCollectLocation:
		return m.handleCollect(s, input), nil
	case StateCollectTechStack:
		return m.handleTechStack(ctx, s, input), nil
	case StateTechAssessment:
		return m.handleAssessment(ctx, s, input)
	default:
		if m.logger != nil {
			m.logger.Error("unhandled conversation state",
				zap.String("session_id", s.ID),
				zap.String("state", s.State.String()),
			)
		}
		return m.reply(s, "I'm sorry, something went wrong. Please try again."), nil
	}
}

func (m *Manager) reply(s *Session, prompt string) Reply {
	return Reply{Prompt: prompt, State: s.State, Terminal: s.State.Terminal()}
}

func (m *Manager) handleCollect(s *Session, input string) Reply {
	field := collectField[s.State]

	res := validate.Validate(field, input)
	if !res.OK {
		if m.logger != nil {
			m.logger.Warn("input rejected",
				zap.String("session_id", s.ID),
				zap.String("field", string(field)),
				zap.String("reason", string(res.Reason)),
			)
		}
		if m.metrics != nil {
			m.metrics.ValidationRejections.WithLabelValues(string(field), string(res.Reason)).Inc()
		}
		// Rejection is idempotent: no profile write, no transition.
		return m.reply(s, rePrompt(field, res.Reason))
	}

	s.setProfileField(field, res.Normalized)
	s.State = nextCollectState[s.State]

	if m.logger != nil {
		m.logger.Info("field collected",
			zap.String("session_id", s.ID),
			zap.String("field", string(field)),
			zap.String("next_state", s.State.String()),
		)
	}

	return m.reply(s, statePrompt(s, s.State))
}

func (s *Session) setProfileField(field validate.Field, normalized string) {
	switch field {
	case validate.FieldName:
		s.Profile.Name = normalized
	case validate.FieldEmail:
		s.Profile.Email = normalized
	case validate.FieldPhone:
		s.Profile.Phone = normalized
	case validate.FieldExperience:
		// The validator guarantees a parseable number.
		years, _ := strconv.Atoi(normalized)
		s.Profile.YearsExperience = years
	case validate.FieldPosition:
		s.Profile.DesiredPosition = normalized
	case validate.FieldLocation:
		s.Profile.Location = normalized
	}
}

func (m *Manager) handleTechStack(ctx context.Context, s *Session, input string) Reply {
	stack := ParseTechStack(input)
	if len(stack) == 0 {
		if m.metrics != nil {
			m.metrics.ValidationRejections.WithLabelValues("tech_stack", string(validate.ReasonEmpty)).Inc()
		}
		return m.reply(s, msgTechStackReprompt)
	}

	s.TechStack = stack
	for _, tech := range stack {
		s.Assessment[tech] = nil
	}

	s.State = StateTechAssessment
	s.techIndex = 0
	s.awaitingFollowUp = false

	if m.logger != nil {
		m.logger.Info("tech stack collected",
			zap.String("session_id", s.ID),
			zap.Strings("stack", stack),
		)
	}

	first := stack[0]
	s.pendingQuestion = m.questions.Question(ctx, s.questionContext(first))

	return m.reply(s, assessmentIntro(stack, first, s.pendingQuestion))
}

func (m *Manager) handleAssessment(ctx context.Context, s *Session, input string) (Reply, error) {
	tech := s.CurrentTechnology()
	wasFollowUp := s.awaitingFollowUp

	s.Assessment[tech] = append(s.Assessment[tech], QA{
		Question: s.pendingQuestion,
		Answer:   input,
	})

	// At most one follow-up per question, never chained.
	if !wasFollowUp && m.questions.WantsFollowUp(input) {
		followUp := m.questions.FollowUp(ctx, s.questionContext(tech), input)
		if followUp != "" {
			entries := s.Assessment[tech]
			entries[len(entries)-1].FollowUpAsked = true

			s.awaitingFollowUp = true
			s.pendingQuestion = followUp
			return m.reply(s, followUpMessage(followUp)), nil
		}
	}

	s.awaitingFollowUp = false
	s.techIndex++

	if next := s.CurrentTechnology(); next != "" {
		s.pendingQuestion = m.questions.Question(ctx, s.questionContext(next))
		return m.reply(s, nextTechnologyMessage(tech, next, s.pendingQuestion)), nil
	}

	return m.wrapUp(ctx, s)
}

// wrapUp emits the closing summary and completes the session. WRAP_UP is a
// pass-through state: the terminal transition happens in the same turn.
func (m *Manager) wrapUp(ctx context.Context, s *Session) (Reply, error) {
	s.State = StateWrapUp
	summary := closingSummary(s)

	s.State = StateCompleted
	s.CompletedAt = time.Now()

	if err := m.persist(ctx, s, store.StatusCompleted); err != nil {
		// The session is logically complete but unsaved; this must read
		// differently from a validation re-prompt.
		return Reply{Prompt: msgSaveFailedComplete, State: s.State, Terminal: true},
			fmt.Errorf("persist completed session %s: %w", s.ID, err)
	}

	return Reply{Prompt: summary, State: s.State, Terminal: true}, nil
}

func (m *Manager) handleExit(ctx context.Context, s *Session) (Reply, error) {
	s.ExitRequested = true
	s.State = StateEndedByUser
	s.CompletedAt = time.Now()

	if m.logger != nil {
		m.logger.Info("exit requested", zap.String("session_id", s.ID))
	}

	if err := m.persist(ctx, s, store.StatusPartial); err != nil {
		return Reply{Prompt: msgSaveFailedExit, State: s.State, Terminal: true},
			fmt.Errorf("persist partial session %s: %w", s.ID, err)
	}

	return Reply{Prompt: exitMessage(s), State: s.State, Terminal: true}, nil
}

func (m *Manager) persist(ctx context.Context, s *Session, status string) error {
	record := &store.Record{
		SessionID:       s.ID,
		Name:            s.Profile.Name,
		Phone:           s.Profile.Phone,
		Email:           s.Profile.Email,
		Location:        s.Profile.Location,
		YearsExperience: s.Profile.YearsExperience,
		DesiredPosition: s.Profile.DesiredPosition,
		TechStack:       s.TechStack,
		Assessment:      make(map[string][]store.QA, len(s.Assessment)),
		Status:          status,
		CreatedAt:       s.CreatedAt,
		CompletedAt:     s.CompletedAt,
	}

	for tech, entries := range s.Assessment {
		qas := make([]store.QA, 0, len(entries))
		for _, qa := range entries {
			qas = append(qas, store.QA{
				Question:      qa.Question,
				Answer:        qa.Answer,
				FollowUpAsked: qa.FollowUpAsked,
			})
		}
		record.Assessment[tech] = qas
	}

	recordID, err := m.store.Persist(ctx, record)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("persisting candidate record failed",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
		if m.metrics != nil {
			m.metrics.PersistFailures.Inc()
		}
		return err
	}

	if m.metrics != nil {
		m.metrics.SessionsFinished.WithLabelValues(status).Inc()
	}

	if m.logger != nil {
		m.logger.Info("session persisted",
			zap.String("session_id", s.ID),
			zap.String("record_id", recordID),
			zap.String("status", status),
		)
	}

	return nil
}
