package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

var (
	ErrSessionNotFound   = fmt.Errorf("%w: session not found", apperr.ErrNotFound)
	ErrSessionNameExists = fmt.Errorf("%w: session name already in use", apperr.ErrInvalidArgument)
	ErrQuestionEmpty     = fmt.Errorf("%w: question is empty", apperr.ErrInvalidArgument)
	ErrTurnEnqueue       = fmt.Errorf("%w: turn enqueue failed", apperr.ErrStorageUnavailable)
)

type SessionStore interface {
	Create(session *model.ChatSession) error
	ListByUserID(userID uint) ([]model.ChatSession, error)
	GetByIDAndUserID(sessionID, userID uint) (*model.ChatSession, error)
	NameExists(userID uint, name string) (bool, error)
	Rename(sessionID, userID uint, name string) error
	DeleteByIDAndUserID(sessionID, userID uint) error
}

type TurnStore interface {
	ListRecent(sessionID uint, limit int) ([]model.Turn, error)
	DeleteBySessionID(sessionID uint) error
}

// AsyncTurnPublisher enqueues a group of turns as one message, so a
// user/assistant pair can never be half-enqueued.
type AsyncTurnPublisher interface {
	Publish(ctx context.Context, turns []model.Turn) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Turn, bool, error)
	SetHistory(ctx context.Context, sessionID uint, turns []model.Turn) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, ownerID uint, history []model.Turn, question string, topK int) ([]vectorstore.Result, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, history []model.Turn, question string, retrieved []vectorstore.Result) (string, error)
}

// sessionLocks serializes the append leg of concurrent asks on the same
// session. Without it two asks could interleave their user/assistant pairs.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *sessionLocks) get(sessionID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}

type ChatService struct {
	sessions     SessionStore
	turns        TurnStore
	publisher    AsyncTurnPublisher
	historyCache HistoryCache
	retriever    Retriever
	synthesizer  Synthesizer
	defaultTopK  int
	maxTopK      int
	locks        *sessionLocks
	log          *zap.Logger
}

func NewChatService(
	sessions SessionStore,
	turns TurnStore,
	publisher AsyncTurnPublisher,
	historyCache HistoryCache,
	retriever Retriever,
	synthesizer Synthesizer,
	defaultTopK, maxTopK int,
	log *zap.Logger,
) *ChatService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = vectorstore.DefaultMaxK
	}
	return &ChatService{
		sessions:     sessions,
		turns:        turns,
		publisher:    publisher,
		historyCache: historyCache,
		retriever:    retriever,
		synthesizer:  synthesizer,
		defaultTopK:  defaultTopK,
		maxTopK:      maxTopK,
		locks:        newSessionLocks(),
		log:          log,
	}
}

type CreateSessionInput struct {
	UserID uint
	Name   string
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.ChatSession, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "New Chat"
	}

	exists, err := s.sessions.NameExists(input.UserID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSessionNameExists
	}

	session := &model.ChatSession{
		UserID: input.UserID,
		Name:   name,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(userID uint) ([]model.ChatSession, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(userID)
}

func (s *ChatService) RenameSession(userID, sessionID uint, name string) (*model.ChatSession, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Name == name {
		return session, nil
	}

	exists, err := s.sessions.NameExists(userID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSessionNameExists
	}

	if err := s.sessions.Rename(sessionID, userID, name); err != nil {
		return nil, err
	}
	session.Name = name
	return session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}

	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.turns.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	return nil
}

func (s *ChatService) GetHistory(ctx context.Context, userID, sessionID uint, limit int) ([]model.Turn, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.loadHistory(ctx, sessionID, limit)
}

// loadHistory is cache-aside over Redis. Snapshots are skipped and not
// refreshed while the dirty marker lives, because the worker may not have
// written the latest turns yet. Both paths keep the newest limit turns in
// chronological order, so long sessions never serve a stale window.
func (s *ChatService) loadHistory(ctx context.Context, sessionID uint, limit int) ([]model.Turn, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimTurns(cached, limit), nil
			}
		}
	}

	turns, err := s.turns.ListRecent(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, turns)
		}
	}
	return turns, nil
}

type AskInput struct {
	UserID    uint
	SessionID uint
	Question  string
	TopK      int
}

type AskResult struct {
	Answer  string               `json:"answer"`
	Sources []vectorstore.Result `json:"sources"`
}

// Ask runs retrieve-then-synthesize for one question. The user and
// assistant turns are enqueued only after synthesis succeeds, in that
// order, so a failed ask leaves the session history untouched.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrQuestionEmpty
	}

	topK := input.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topK < 1 || topK > s.maxTopK {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d", apperr.ErrInvalidArgument, s.maxTopK)
	}

	session, err := s.sessions.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	history, err := s.loadHistory(ctx, input.SessionID, 0)
	if err != nil {
		return nil, err
	}

	retrieved, err := s.retriever.Retrieve(ctx, input.UserID, history, question, topK)
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, history, question, retrieved)
	if err != nil {
		return nil, err
	}

	if err := s.appendTurns(ctx, input, question, answer); err != nil {
		return nil, err
	}

	s.log.Info("ask answered",
		zap.Uint("user_id", input.UserID),
		zap.Uint("session_id", input.SessionID),
		zap.Int("sources", len(retrieved)))

	return &AskResult{Answer: answer, Sources: retrieved}, nil
}

func (s *ChatService) appendTurns(ctx context.Context, input AskInput, question, answer string) error {
	if s.publisher == nil {
		return ErrTurnEnqueue
	}

	lock := s.locks.get(input.SessionID)
	lock.Lock()
	defer lock.Unlock()

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, input.SessionID)
	}

	// Both turns travel in one message: either the pair lands in the
	// queue or neither does.
	now := time.Now()
	pair := []model.Turn{
		{
			SessionID: input.SessionID,
			UserID:    input.UserID,
			Role:      model.RoleUser,
			Content:   question,
			CreatedAt: now,
		},
		{
			SessionID: input.SessionID,
			UserID:    input.UserID,
			Role:      model.RoleAssistant,
			Content:   answer,
			CreatedAt: now,
		},
	}
	if err := s.publisher.Publish(ctx, pair); err != nil {
		return ErrTurnEnqueue
	}
	return nil
}

func trimTurns(turns []model.Turn, limit int) []model.Turn {
	if limit <= 0 || limit >= len(turns) {
		return turns
	}
	return turns[len(turns)-limit:]
}
