package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches whole quiz documents in Redis and falls back to the
// backing store on a miss. The full document is cached (not just the
// answer key) because the engine shuffles option text server-side.
// Layout: SET arena:quiz:{quizID} {json} EX ttl
type QuizCache struct {
	client *redis.Client
	store  app.QuizStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, store app.QuizStore, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := c.store.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if raw, err := json.Marshal(quiz); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, c.key(quizID), raw, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return c.store.ListQuizzes(ctx)
}

func (c *QuizCache) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := c.store.SaveQuiz(ctx, quiz); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quiz.ID)).Err()
	return nil
}

func (c *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := c.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quizID)).Err()
	return nil
}

func (c *QuizCache) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID string) string {
	return "arena:quiz:" + quizID
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
