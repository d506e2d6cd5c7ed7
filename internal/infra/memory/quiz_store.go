package memory

import (
	"context"
	"sort"
	"sync"

	"hack-arena/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore, used when no
// postgres is configured and as the seed store for tests.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(seed map[string]domain.Quiz) *QuizStore {
	quizzes := make(map[string]domain.Quiz, len(seed))
	for id, quiz := range seed {
		quizzes[id] = quiz
	}
	return &QuizStore{quizzes: quizzes}
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (s *QuizStore) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}
