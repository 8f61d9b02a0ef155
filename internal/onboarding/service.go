package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/finance"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/users"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 10000
)

// ErrAlreadyComplete means the client finished setup before and should go
// straight to the dashboard.
var ErrAlreadyComplete = errors.New("setup already complete")

// View is what a client sees of its wizard.
type View struct {
	State              State             `json:"state"`
	Income             finance.RawAmount `json:"income,omitempty"`
	Savings            finance.RawAmount `json:"savings,omitempty"`
	OnboardingNetWorth *decimal.Decimal  `json:"onboarding_net_worth,omitempty"`
}

type session struct {
	mu       sync.Mutex
	wizard   *Wizard
	lastSeen time.Time
}

// Service keeps one wizard per client and guards re-entry with Markers.
// Sessions idle longer than ttl are dropped, and at most maxSessions are held;
// when full, the least recently used session is evicted.
type Service struct {
	markers  Markers
	resolver UserResolver
	rec      Reconciler

	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService wires the wizard to its collaborators.
func NewService(markers Markers, resolver UserResolver, rec Reconciler) *Service {
	return &Service{
		markers:  markers,
		resolver: resolver,
		rec:      rec,

		ttl:         defaultSessionTTL,
		maxSessions: defaultMaxSessions,
		now:         time.Now,

		sessions: make(map[string]*session),
	}
}

// Begin returns the client's current wizard, creating one if needed.
func (s *Service) Begin(ctx context.Context, clientID string) (View, error) {
	sess, err := s.open(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return viewOf(sess.wizard), nil
}

// SubmitIncome runs step one for the client.
func (s *Service) SubmitIncome(ctx context.Context, clientID string, income, savings finance.RawAmount) (View, error) {
	sess, err := s.open(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.wizard.SubmitIncome(income, savings); err != nil {
		return viewOf(sess.wizard), err
	}
	return viewOf(sess.wizard), nil
}

// Back returns the client's wizard to step one.
func (s *Service) Back(ctx context.Context, clientID string) (View, error) {
	sess, err := s.open(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.wizard.Back(); err != nil {
		return viewOf(sess.wizard), err
	}
	return viewOf(sess.wizard), nil
}

// Complete runs step two, persists everything and sets the client's marker.
func (s *Service) Complete(ctx context.Context, clientID string, id users.Identity, form ExpenseForm) (View, error) {
	sess, err := s.open(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.wizard.Complete(ctx, id, form, s.resolver, s.rec); err != nil {
		return viewOf(sess.wizard), err
	}
	view := viewOf(sess.wizard)

	// The data is saved at this point. Without a marker the completed session
	// stays behind so the client still sees Completed until it expires.
	if err := s.markers.MarkComplete(ctx, clientID); err != nil {
		logger.Get().Warn("record setup marker", zap.String("client", clientID), zap.Error(err))
		return view, nil
	}

	s.mu.Lock()
	if s.sessions[clientID] == sess {
		delete(s.sessions, clientID)
	}
	s.mu.Unlock()
	return view, nil
}

func (s *Service) open(ctx context.Context, clientID string) (*session, error) {
	done, err := s.markers.IsComplete(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("read setup marker: %w", err)
	}
	if done {
		return nil, ErrAlreadyComplete
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[clientID]
	if ok && now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, clientID)
		ok = false
	}
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictLocked(now)
		}
		sess = &session{wizard: NewWizard()}
		s.sessions[clientID] = sess
	}
	sess.lastSeen = now
	return sess, nil
}

// evictLocked drops expired sessions and, if still full, the least recently
// used one. s.mu must be held.
func (s *Service) evictLocked(now time.Time) {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			continue
		}
		if oldestID == "" || sess.lastSeen.Before(oldest) {
			oldestID, oldest = id, sess.lastSeen
		}
	}
	if len(s.sessions) >= s.maxSessions && oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
