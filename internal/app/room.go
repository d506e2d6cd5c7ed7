package app

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"hack-arena/internal/domain"
)

// Room is one live game session, identified by its PIN. All mutation
// happens under mu; the engine locks before calling the *Locked helpers
// so each inbound event runs to completion against a consistent room.
type Room struct {
	mu sync.Mutex

	pin    string
	hostID string
	quiz   domain.Quiz

	players map[string]*domain.Player
	order   []string // join order, used for stable tie-breaks

	state             domain.GameState
	currentQuestion   int
	questionsAnswered int
	gameSpeed         float64

	secret *questionSecret

	durationSeconds int
	timeRemaining   int
	timer           *countdown

	createdAt time.Time
	now       func() time.Time
	rnd       *rand.Rand
}

// questionSecret is the answer key for the outstanding question. It is
// valid only between sendQuestion and the next dispatch or game end.
type questionSecret struct {
	ShuffledCorrect int
	OriginalCorrect int
}

func newRoom(pin, hostID string, quiz domain.Quiz, rnd *rand.Rand, now func() time.Time) *Room {
	return &Room{
		pin:       pin,
		hostID:    hostID,
		quiz:      quiz,
		players:   make(map[string]*domain.Player),
		state:     domain.StateWaiting,
		gameSpeed: 1.0,
		createdAt: now(),
		now:       now,
		rnd:       rnd,
	}
}

// NewRoom is exported for infrastructure layers that need to seed rooms.
func NewRoom(pin, hostID string, quiz domain.Quiz) *Room {
	return newRoom(pin, hostID, quiz, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// Pin returns the room's PIN.
func (r *Room) Pin() string { return r.pin }

// HostID returns the connection id bound as host. The binding never changes.
func (r *Room) HostID() string { return r.hostID }

func (r *Room) joinLocked(id, nickname, password string) error {
	if r.state != domain.StateWaiting {
		return domain.ErrGameAlreadyStarted
	}
	for _, p := range r.players {
		if p.Password == password {
			return domain.ErrPasswordTaken
		}
	}
	r.players[id] = &domain.Player{ID: id, Nickname: nickname, Password: password}
	r.order = append(r.order, id)
	return nil
}

func (r *Room) removePlayerLocked(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// rosterLocked lists players in join order.
func (r *Room) rosterLocked() []domain.PlayerView {
	views := make([]domain.PlayerView, 0, len(r.players))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			views = append(views, p.View())
		}
	}
	return views
}

// scoreboardLocked lists players by score descending; equal scores keep
// join order across repeated computations.
func (r *Room) scoreboardLocked() []domain.PlayerView {
	views := r.rosterLocked()
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Score > views[j].Score
	})
	return views
}

func (r *Room) finalScoresLocked() []domain.FinalScore {
	finals := make([]domain.FinalScore, 0, len(r.players))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			finals = append(finals, domain.FinalScore{
				Nickname:       p.Nickname,
				Score:          p.Score,
				CorrectAnswers: p.CorrectAnswers,
			})
		}
	}
	sort.SliceStable(finals, func(i, j int) bool {
		return finals[i].Score > finals[j].Score
	})
	return finals
}

// shuffledOption pairs an option with its position in the stored quiz, so
// the answer key survives duplicate option text.
type shuffledOption struct {
	original int
	text     string
}

// shuffleQuestionLocked produces the shuffled options for the current
// question and records the answer key. Fisher-Yates keeps the shuffle
// unbiased.
func (r *Room) shuffleQuestionLocked() (domain.Question, []string) {
	question := r.quiz.Questions[r.currentQuestion]

	entries := make([]shuffledOption, len(question.Options))
	for i, text := range question.Options {
		entries[i] = shuffledOption{original: i, text: text}
	}
	for i := len(entries) - 1; i > 0; i-- {
		j := r.rnd.Intn(i + 1)
		entries[i], entries[j] = entries[j], entries[i]
	}

	options := make([]string, len(entries))
	shuffledCorrect := 0
	for i, entry := range entries {
		options[i] = entry.text
		if entry.original == question.CorrectAnswer {
			shuffledCorrect = i
		}
	}
	r.secret = &questionSecret{
		ShuffledCorrect: shuffledCorrect,
		OriginalCorrect: question.CorrectAnswer,
	}
	return question, options
}

// startCountdownLocked replaces any previous timer after cancelling it.
// onTick runs once per interval until it returns false or the timer is
// cancelled.
func (r *Room) startCountdownLocked(interval time.Duration, onTick func() bool) {
	r.cancelCountdownLocked()
	r.timer = newCountdown(interval, onTick)
}

func (r *Room) cancelCountdownLocked() {
	if r.timer != nil {
		r.timer.cancel()
		r.timer = nil
	}
}

// countdown is a cancellable periodic task. cancel is idempotent and safe
// to call from inside the tick callback.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func newCountdown(interval time.Duration, onTick func() bool) *countdown {
	c := &countdown{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !onTick() {
					return
				}
			case <-c.stop:
				return
			}
		}
	}()
	return c
}

func (c *countdown) cancel() {
	c.once.Do(func() { close(c.stop) })
}
