package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"hack-arena/internal/domain"
)

// RoomRepository stores live rooms keyed by PIN.
type RoomRepository interface {
	Put(room *Room)
	Get(pin string) (*Room, bool)
	Delete(pin string)
	Exists(pin string) bool
}

// ConnRegistry maps an active connection to the room it belongs to, so
// disconnects can be routed without scanning every room.
type ConnRegistry interface {
	Bind(connID, pin string)
	Lookup(connID string) (string, bool)
	Unbind(connID string)
}

// QuizReader loads quiz content (from cache/backing store).
type QuizReader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Emitter is the engine's outbound port: directed events, room broadcast,
// and room membership for the broadcast channel.
type Emitter interface {
	ToConn(connID string, ev domain.Event)
	ToRoom(pin string, ev domain.Event)
	Subscribe(pin, connID string)
	Unsubscribe(pin, connID string)
	CloseRoom(pin string)
}

// Settings tunes game pacing. Zero values fall back to defaults.
type Settings struct {
	RewardEvery       int           // reward interlude after every Nth question
	SpeedupEvery      int           // speed bump after every Nth question
	SpeedStep         float64       // added to gameSpeed on each bump
	MinigameMaxPoints int           // cap on client-reported mini-game points
	TickInterval      time.Duration // countdown granularity, 1s in production
}

// DefaultSettings returns production pacing.
func DefaultSettings() Settings {
	return Settings{
		RewardEvery:       3,
		SpeedupEvery:      6,
		SpeedStep:         0.2,
		MinigameMaxPoints: 1000,
		TickInterval:      time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.RewardEvery <= 0 {
		s.RewardEvery = d.RewardEvery
	}
	if s.SpeedupEvery <= 0 {
		s.SpeedupEvery = d.SpeedupEvery
	}
	if s.SpeedStep <= 0 {
		s.SpeedStep = d.SpeedStep
	}
	if s.MinigameMaxPoints <= 0 {
		s.MinigameMaxPoints = d.MinigameMaxPoints
	}
	if s.TickInterval <= 0 {
		s.TickInterval = d.TickInterval
	}
	return s
}

// GameEngine owns room lifecycle, question dispatch, scoring, rewards and
// timer-driven termination. It is the authoritative state machine; clients
// only ever see what it emits.
type GameEngine struct {
	rooms    RoomRepository
	registry ConnRegistry
	quizzes  QuizReader
	emitter  Emitter
	settings Settings
	pins     *pinAllocator
	now      func() time.Time
}

func NewGameEngine(rooms RoomRepository, registry ConnRegistry, quizzes QuizReader, emitter Emitter, settings Settings) *GameEngine {
	return &GameEngine{
		rooms:    rooms,
		registry: registry,
		quizzes:  quizzes,
		emitter:  emitter,
		settings: settings.withDefaults(),
		pins:     newPinAllocator(time.Now().UnixNano()),
		now:      time.Now,
	}
}

// CreateRoom allocates a PIN, snapshots the quiz and registers the calling
// connection as host.
func (e *GameEngine) CreateRoom(ctx context.Context, quizID, hostConnID string) (string, error) {
	quiz, err := e.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", domain.ErrQuizNotFound
	}

	pin := e.pins.Allocate(e.rooms.Exists)
	room := newRoom(pin, hostConnID, quiz, rand.New(rand.NewSource(e.now().UnixNano())), e.now)
	e.rooms.Put(room)
	e.registry.Bind(hostConnID, pin)
	e.emitter.Subscribe(pin, hostConnID)
	e.emitter.ToConn(hostConnID, domain.Event{
		Type:    domain.EventRoomCreated,
		Payload: domain.RoomCreatedPayload{Pin: pin, Quiz: quiz},
	})
	log.Printf("room created: pin=%s quiz=%q", pin, quiz.Title)
	return pin, nil
}

// JoinRoom adds a player to a waiting room. The password must be unique
// among the room's current players.
func (e *GameEngine) JoinRoom(pin, nickname, password, connID string) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.mu.Lock()
	if err := room.joinLocked(connID, nickname, password); err != nil {
		room.mu.Unlock()
		return err
	}
	roster := room.rosterLocked()
	room.mu.Unlock()

	e.registry.Bind(connID, pin)
	e.emitter.Subscribe(pin, connID)
	e.emitter.ToConn(connID, domain.Event{
		Type:    domain.EventJoinSuccess,
		Payload: domain.JoinSuccessPayload{Pin: pin},
	})
	e.emitter.ToRoom(pin, domain.Event{
		Type:    domain.EventPlayerListUpdate,
		Payload: domain.PlayerListPayload{Players: roster},
	})
	log.Printf("player joined: pin=%s nickname=%s", pin, nickname)
	return nil
}

// StartGame moves the room into play, starts the countdown and dispatches
// the first question. Host-only; needs at least one player.
func (e *GameEngine) StartGame(pin, connID string, durationMinutes int) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.hostID != connID {
		return domain.ErrNotHost
	}

	room.mu.Lock()
	if len(room.players) == 0 {
		room.mu.Unlock()
		return domain.ErrNoPlayers
	}
	next, err := room.state.Transition(domain.StatePlaying)
	if err != nil {
		room.mu.Unlock()
		return err
	}
	room.state = next
	room.currentQuestion = 0
	room.questionsAnswered = 0
	room.durationSeconds = durationMinutes * 60
	room.timeRemaining = room.durationSeconds
	remaining := room.timeRemaining
	room.startCountdownLocked(e.settings.TickInterval, func() bool { return e.tick(pin) })
	room.mu.Unlock()

	e.emitter.ToRoom(pin, domain.Event{
		Type:    domain.EventGameStarted,
		Payload: domain.GameStartedPayload{Duration: durationMinutes, TimeRemaining: remaining},
	})
	e.sendQuestion(pin)
	log.Printf("game started: pin=%s duration=%dm", pin, durationMinutes)
	return nil
}

// sendQuestion shuffles the current question's options, records the answer
// key and broadcasts the question. The correct index never reaches clients.
func (e *GameEngine) sendQuestion(pin string) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	if room.currentQuestion >= len(room.quiz.Questions) {
		room.mu.Unlock()
		return
	}
	question, options := room.shuffleQuestionLocked()
	payload := domain.NewQuestionPayload{
		Question: domain.QuestionView{
			Text:      question.Text,
			Options:   options,
			TimeLimit: question.TimeLimit,
		},
		QuestionNumber: room.currentQuestion + 1,
		TotalQuestions: len(room.quiz.Questions),
		TimeLimit:      question.TimeLimit,
	}
	room.mu.Unlock()

	e.emitter.ToRoom(pin, domain.Event{Type: domain.EventNewQuestion, Payload: payload})
}

// SubmitAnswer scores an answer against the secret in effect when the
// question was dispatched. Unknown rooms, unknown players and late answers
// (no outstanding secret) are dropped silently as stale traffic.
func (e *GameEngine) SubmitAnswer(pin, connID string, answer, timeSpent int) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	player, ok := room.players[connID]
	if !ok || room.secret == nil {
		room.mu.Unlock()
		return
	}

	correct := answer == room.secret.ShuffledCorrect
	awarded := 0
	if correct {
		timeBonus := 1000 - timeSpent*50
		if timeBonus < 100 {
			timeBonus = 100
		}
		awarded = 1000 + timeBonus + player.Streak*100
		player.Score += awarded
		player.Streak++
		player.CorrectAnswers++
	} else {
		player.Streak = 0
	}
	newTotal := player.Score
	room.mu.Unlock()

	e.emitter.ToConn(connID, domain.Event{
		Type:    domain.EventAnswerResult,
		Payload: domain.AnswerResultPayload{Correct: correct, Score: awarded, NewTotal: newTotal},
	})
	e.updateScoreboard(pin)
}

// advance captures what should happen after the room's counters moved.
type advance int

const (
	advanceNone advance = iota
	advanceQuestion
	advanceReward
	advanceEnd
)

// NextQuestion advances the sequence. Every RewardEvery-th answered
// question pauses for a reward interlude instead of dispatching.
func (e *GameEngine) NextQuestion(pin, connID string) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.hostID != connID {
		return domain.ErrNotHost
	}

	room.mu.Lock()
	if room.state != domain.StatePlaying {
		room.mu.Unlock()
		return domain.ErrInvalidState
	}
	room.currentQuestion++
	room.questionsAnswered++
	room.secret = nil

	step := advanceQuestion
	var speed float64
	if room.questionsAnswered%e.settings.RewardEvery == 0 {
		room.state, _ = room.state.Transition(domain.StateReward)
		speed = room.gameSpeed
		step = advanceReward
	} else if room.currentQuestion >= len(room.quiz.Questions) {
		step = advanceEnd
	}
	room.mu.Unlock()

	switch step {
	case advanceReward:
		e.emitter.ToRoom(pin, domain.Event{
			Type:    domain.EventRewardTime,
			Payload: domain.RewardTimePayload{Message: "Reward time!", Speed: speed},
		})
	case advanceEnd:
		e.EndGame(pin, domain.EndReasonManual)
	default:
		e.sendQuestion(pin)
	}
	return nil
}

// ContinueGame resumes play after a reward interlude, bumping game speed
// on every SpeedupEvery-th answered question.
func (e *GameEngine) ContinueGame(pin, connID string) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.hostID != connID {
		return domain.ErrNotHost
	}

	room.mu.Lock()
	next, err := room.state.Transition(domain.StatePlaying)
	if err != nil {
		room.mu.Unlock()
		return err
	}
	room.state = next
	if room.questionsAnswered%e.settings.SpeedupEvery == 0 {
		room.gameSpeed += e.settings.SpeedStep
	}
	step := advanceQuestion
	if room.currentQuestion >= len(room.quiz.Questions) {
		step = advanceEnd
	}
	room.mu.Unlock()

	if step == advanceEnd {
		e.EndGame(pin, domain.EndReasonManual)
	} else {
		e.sendQuestion(pin)
	}
	return nil
}

// SelectReward resolves a player's reward choice with a directed event.
func (e *GameEngine) SelectReward(pin, playerID, reward string) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	if _, ok := room.players[playerID]; !ok {
		room.mu.Unlock()
		return
	}
	speed := room.gameSpeed
	var targets []domain.PlayerView
	if reward == domain.RewardHack {
		for _, id := range room.order {
			p, ok := room.players[id]
			if !ok || p.ID == playerID || p.IsHacked {
				continue
			}
			targets = append(targets, p.View())
		}
	}
	room.mu.Unlock()

	switch reward {
	case domain.RewardMinigame:
		e.emitter.ToConn(playerID, domain.Event{
			Type:    domain.EventStartMinigame,
			Payload: domain.StartMinigamePayload{Speed: speed},
		})
	case domain.RewardHack:
		e.emitter.ToConn(playerID, domain.Event{
			Type:    domain.EventStartHack,
			Payload: domain.StartHackPayload{Players: targets, Speed: speed},
		})
	case domain.RewardNothing:
		e.emitter.ToConn(playerID, domain.Event{Type: domain.EventRewardNothing})
	}
}

// MinigameComplete credits client-reported mini-game points, capped by
// settings to blunt obviously bogus reports.
func (e *GameEngine) MinigameComplete(pin, playerID string, earnedPoints int) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	player, ok := room.players[playerID]
	if !ok {
		room.mu.Unlock()
		return
	}
	earned := earnedPoints
	if earned < 0 {
		earned = 0
	}
	if earned > e.settings.MinigameMaxPoints {
		earned = e.settings.MinigameMaxPoints
	}
	player.Score += earned
	room.mu.Unlock()

	e.emitter.ToConn(playerID, domain.Event{
		Type:    domain.EventMinigameResult,
		Payload: domain.MinigameResultPayload{Earned: earned},
	})
	e.updateScoreboard(pin)
}

// HackSuccess transfers points from target to hacker, clamped so the
// target never goes negative, and marks the target as hacked for the rest
// of the session.
func (e *GameEngine) HackSuccess(pin, hackerID, targetID string, stolenPoints int) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	hacker, hackerOK := room.players[hackerID]
	target, targetOK := room.players[targetID]
	if !hackerOK || !targetOK {
		room.mu.Unlock()
		return
	}
	stolen := stolenPoints
	if stolen < 0 {
		stolen = 0
	}
	if stolen > target.Score {
		stolen = target.Score
	}
	target.Score -= stolen
	hacker.Score += stolen
	target.IsHacked = true
	hackerName, targetName := hacker.Nickname, target.Nickname
	room.mu.Unlock()

	e.emitter.ToConn(targetID, domain.Event{
		Type:    domain.EventGotHacked,
		Payload: domain.GotHackedPayload{By: hackerName, Lost: stolen},
	})
	e.emitter.ToConn(hackerID, domain.Event{
		Type:    domain.EventHackComplete,
		Payload: domain.HackCompletePayload{Stolen: stolen, From: targetName},
	})
	e.updateScoreboard(pin)
}

// EndGame stops the countdown, broadcasts the final leaderboard and marks
// the room finished. Idempotent: a finished room is left untouched.
func (e *GameEngine) EndGame(pin, reason string) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	room.mu.Lock()
	if room.state == domain.StateFinished {
		room.mu.Unlock()
		return
	}
	room.cancelCountdownLocked()
	room.state, _ = room.state.Transition(domain.StateFinished)
	room.secret = nil
	finals := room.finalScoresLocked()
	room.mu.Unlock()

	e.emitter.ToRoom(pin, domain.Event{
		Type:    domain.EventGameEnded,
		Payload: domain.GameEndedPayload{Scores: finals, Reason: reason},
	})
	log.Printf("game ended: pin=%s reason=%s", pin, reason)
}

// EndGameByHost is the client-facing manual end: only the host may call it.
func (e *GameEngine) EndGameByHost(pin, connID string) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.hostID != connID {
		return domain.ErrNotHost
	}
	e.EndGame(pin, domain.EndReasonManual)
	return nil
}

// KickPlayer removes a player at the host's request.
func (e *GameEngine) KickPlayer(pin, connID, playerID string) error {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.hostID != connID {
		return domain.ErrNotHost
	}

	room.mu.Lock()
	if !room.removePlayerLocked(playerID) {
		room.mu.Unlock()
		return nil
	}
	roster := room.rosterLocked()
	room.mu.Unlock()

	e.emitter.ToConn(playerID, domain.Event{
		Type:    domain.EventKicked,
		Payload: domain.KickedPayload{Message: "You were kicked by the host"},
	})
	e.emitter.Unsubscribe(pin, playerID)
	e.registry.Unbind(playerID)
	e.emitter.ToRoom(pin, domain.Event{
		Type:    domain.EventPlayerListUpdate,
		Payload: domain.PlayerListPayload{Players: roster},
	})
	return nil
}

// Disconnect reconciles a dropped connection. A host disconnect tears the
// room down (timer included); a player disconnect just updates the roster.
func (e *GameEngine) Disconnect(connID string) {
	pin, ok := e.registry.Lookup(connID)
	if !ok {
		return
	}
	e.registry.Unbind(connID)

	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}

	if room.hostID == connID {
		room.mu.Lock()
		room.cancelCountdownLocked()
		room.mu.Unlock()

		e.emitter.ToRoom(pin, domain.Event{Type: domain.EventHostDisconnected})
		e.emitter.CloseRoom(pin)
		e.rooms.Delete(pin)
		log.Printf("room closed, host disconnected: pin=%s", pin)
		return
	}

	room.mu.Lock()
	removed := room.removePlayerLocked(connID)
	roster := room.rosterLocked()
	room.mu.Unlock()

	e.emitter.Unsubscribe(pin, connID)
	if removed {
		e.emitter.ToRoom(pin, domain.Event{
			Type:    domain.EventPlayerListUpdate,
			Payload: domain.PlayerListPayload{Players: roster},
		})
	}
}

// updateScoreboard broadcasts the sorted scoreboard; called after every
// score-affecting event.
func (e *GameEngine) updateScoreboard(pin string) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}
	room.mu.Lock()
	scores := room.scoreboardLocked()
	room.mu.Unlock()

	e.emitter.ToRoom(pin, domain.Event{
		Type:    domain.EventScoreUpdate,
		Payload: domain.ScoreUpdatePayload{Scores: scores},
	})
}

// tick handles one countdown interval. It returns false to stop the timer
// once the room is gone, finished, or out of time.
func (e *GameEngine) tick(pin string) bool {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return false
	}

	room.mu.Lock()
	if room.state == domain.StateFinished {
		room.mu.Unlock()
		return false
	}
	room.timeRemaining--
	remaining := room.timeRemaining
	room.mu.Unlock()

	e.emitter.ToRoom(pin, domain.Event{
		Type: domain.EventTimeUpdate,
		Payload: domain.TimeUpdatePayload{
			TimeRemaining: remaining,
			Minutes:       remaining / 60,
			Seconds:       remaining % 60,
		},
	})

	if remaining <= 0 {
		e.EndGame(pin, domain.EndReasonTime)
		return false
	}
	return true
}
