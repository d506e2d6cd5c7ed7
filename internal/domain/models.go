package domain

import (
	"fmt"
	"time"
)

// DefaultTimeLimit is applied to questions saved without an explicit limit.
const DefaultTimeLimit = 20

// Question is a single multiple-choice question. Options always holds
// exactly four entries; CorrectAnswer indexes into it.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
}

// Quiz is an ordered set of questions. Immutable once saved except by
// explicit replace or delete.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Validate checks quiz content at save time and fills in time-limit
// defaults. Rooms snapshot quizzes, so nothing re-validates later.
func (q *Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrInvalidQuiz)
	}
	for i := range q.Questions {
		question := &q.Questions[i]
		if len(question.Options) != 4 {
			return fmt.Errorf("%w: question %d has %d options, want 4", ErrInvalidQuiz, i+1, len(question.Options))
		}
		for _, opt := range question.Options {
			if opt == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrInvalidQuiz, i+1)
			}
		}
		if question.CorrectAnswer < 0 || question.CorrectAnswer > 3 {
			return fmt.Errorf("%w: question %d correct answer index %d out of range", ErrInvalidQuiz, i+1, question.CorrectAnswer)
		}
		if question.TimeLimit <= 0 {
			question.TimeLimit = DefaultTimeLimit
		}
	}
	return nil
}

// QuizSummary is the listing view of a quiz, without question content.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary returns the listing view of the quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		QuestionCount: len(q.Questions),
		CreatedAt:     q.CreatedAt,
	}
}

// Player is one participant in a room, keyed by connection id. The
// password is a lightweight join secret and never leaves the server.
type Player struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Password       string `json:"-"`
	Score          int    `json:"score"`
	Streak         int    `json:"streak"`
	IsHacked       bool   `json:"isHacked"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// PlayerView is the roster/scoreboard projection of a player.
type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	IsHacked bool   `json:"isHacked"`
}

// View returns the broadcast-safe projection of the player.
func (p Player) View() PlayerView {
	return PlayerView{ID: p.ID, Nickname: p.Nickname, Score: p.Score, IsHacked: p.IsHacked}
}

// FinalScore is one row of the end-of-game leaderboard.
type FinalScore struct {
	Nickname       string `json:"nickname"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}
