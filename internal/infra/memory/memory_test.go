package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
)

func TestQuizStoreCRUD(t *testing.T) {
	store := NewQuizStore(nil)
	ctx := context.Background()

	if err := store.SaveQuiz(ctx, sampleQuiz("quiz-1")); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	quiz, err := store.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Sample" {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	quizzes, err := store.ListQuizzes(ctx)
	if err != nil || len(quizzes) != 1 {
		t.Fatalf("expected one quiz, got %d (%v)", len(quizzes), err)
	}

	if err := store.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestQuizCacheAvoidsRepeatedLoads(t *testing.T) {
	backing := &countingStore{QuizStore: NewQuizStore(map[string]domain.Quiz{
		"quiz-1": sampleQuiz("quiz-1"),
	})}
	cache := NewQuizCache(backing, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if backing.gets != 1 {
		t.Fatalf("expected backing hit once, got %d", backing.gets)
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if backing.gets != 1 {
		t.Fatalf("expected cache hit, backing gets %d", backing.gets)
	}
}

func TestQuizCacheInvalidatesOnWrite(t *testing.T) {
	backing := &countingStore{QuizStore: NewQuizStore(map[string]domain.Quiz{
		"quiz-1": sampleQuiz("quiz-1"),
	})}
	cache := NewQuizCache(backing, time.Minute)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}

	updated := sampleQuiz("quiz-1")
	updated.Title = "Updated"
	if err := cache.SaveQuiz(ctx, updated); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if quiz.Title != "Updated" {
		t.Fatalf("expected refreshed content, got %q", quiz.Title)
	}
}

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()

	room := app.NewRoom("123456", "host", sampleQuiz("quiz-1"))
	store.Put(room)

	if !store.Exists("123456") {
		t.Fatalf("expected room present")
	}
	got, ok := store.Get("123456")
	if !ok || got.Pin() != "123456" || got.HostID() != "host" {
		t.Fatalf("unexpected room: %+v ok=%v", got, ok)
	}

	store.Delete("123456")
	if store.Exists("123456") {
		t.Fatalf("expected room removed")
	}
}

func TestConnRegistry(t *testing.T) {
	registry := NewConnRegistry()

	registry.Bind("conn-1", "123456")
	pin, ok := registry.Lookup("conn-1")
	if !ok || pin != "123456" {
		t.Fatalf("expected binding, got %q %v", pin, ok)
	}

	registry.Unbind("conn-1")
	if _, ok := registry.Lookup("conn-1"); ok {
		t.Fatalf("expected binding removed")
	}
}

type countingStore struct {
	*QuizStore
	gets int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.gets++
	return s.QuizStore.GetQuiz(ctx, quizID)
}

func sampleQuiz(id string) domain.Quiz {
	return domain.Quiz{
		ID:    id,
		Title: "Sample",
		Questions: []domain.Question{
			{
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4", "5", "22"},
				CorrectAnswer: 1,
				TimeLimit:     20,
			},
		},
	}
}
