package app

import (
	"context"
	"time"

	"hack-arena/internal/domain"
	"github.com/google/uuid"
)

// QuizStore is the writable quiz repository contract.
type QuizStore interface {
	QuizReader
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// QuizService wraps the quiz store with the admin-key gate. Mutations
// require a key from the configured allow-list; reads do not.
type QuizService struct {
	store QuizStore
	keys  map[string]struct{}
	now   func() time.Time
	newID func() string
}

func NewQuizService(store QuizStore, adminKeys []string) *QuizService {
	keys := make(map[string]struct{}, len(adminKeys))
	for _, k := range adminKeys {
		keys[k] = struct{}{}
	}
	return &QuizService{
		store: store,
		keys:  keys,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// VerifyKey reports whether the key is on the admin allow-list.
func (s *QuizService) VerifyKey(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// SaveQuiz validates and stores a quiz, assigning id and creation time.
func (s *QuizService) SaveQuiz(ctx context.Context, key string, quiz domain.Quiz) (string, error) {
	if !s.VerifyKey(key) {
		return "", domain.ErrUnauthorized
	}
	if err := quiz.Validate(); err != nil {
		return "", err
	}
	quiz.ID = s.newID()
	quiz.CreatedAt = s.now()
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return "", err
	}
	return quiz.ID, nil
}

// ListQuizzes returns summaries of every stored quiz.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		summaries = append(summaries, q.Summary())
	}
	return summaries, nil
}

// GetQuiz returns full quiz content by id.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

// DeleteQuiz removes a quiz by id.
func (s *QuizService) DeleteQuiz(ctx context.Context, key, quizID string) error {
	if !s.VerifyKey(key) {
		return domain.ErrUnauthorized
	}
	return s.store.DeleteQuiz(ctx, quizID)
}
