package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizCache wraps a quiz store with a TTL read cache so room creation does
// not hit the backing store on every host action. Writes pass through and
// invalidate the cached entry.
type QuizCache struct {
	store app.QuizStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(store app.QuizStore, ttl time.Duration) *QuizCache {
	return &QuizCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuiz),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.store.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
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
	c.invalidate(quiz.ID)
	return nil
}

func (c *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := c.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	c.invalidate(quizID)
	return nil
}

func (c *QuizCache) invalidate(quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.mu.Unlock()
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
