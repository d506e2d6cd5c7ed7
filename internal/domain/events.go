package domain

// Event is the envelope for every message sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Server-to-client event types. Names are part of the wire protocol.
const (
	EventRoomCreated      = "room-created"
	EventRoomError        = "room-error"
	EventJoinSuccess      = "join-success"
	EventJoinError        = "join-error"
	EventPlayerListUpdate = "player-list-update"
	EventGameStarted      = "game-started"
	EventGameError        = "game-error"
	EventTimeUpdate       = "time-update"
	EventNewQuestion      = "new-question"
	EventAnswerResult     = "answer-result"
	EventRewardTime       = "reward-time"
	EventStartMinigame    = "start-minigame"
	EventStartHack        = "start-hack"
	EventRewardNothing    = "reward-nothing"
	EventGotHacked        = "got-hacked"
	EventHackComplete     = "hack-complete"
	EventMinigameResult   = "minigame-result"
	EventScoreUpdate      = "score-update"
	EventGameEnded        = "game-ended"
	EventKicked           = "kicked"
	EventHostDisconnected = "host-disconnected"
)

// End-of-game reasons carried by EventGameEnded.
const (
	EndReasonTime   = "time"
	EndReasonManual = "manual"
)

// Reward choices carried by the reward-selected client event.
const (
	RewardMinigame = "minigame"
	RewardHack     = "hack"
	RewardNothing  = "nothing"
)

type RoomCreatedPayload struct {
	Pin  string `json:"pin"`
	Quiz Quiz   `json:"quiz"`
}

type JoinSuccessPayload struct {
	Pin string `json:"pin"`
}

type PlayerListPayload struct {
	Players []PlayerView `json:"players"`
}

type GameStartedPayload struct {
	Duration      int `json:"duration"`
	TimeRemaining int `json:"timeRemaining"`
}

type TimeUpdatePayload struct {
	TimeRemaining int `json:"timeRemaining"`
	Minutes       int `json:"minutes"`
	Seconds       int `json:"seconds"`
}

// QuestionView is a question as broadcast to players: shuffled options,
// no correct index.
type QuestionView struct {
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type NewQuestionPayload struct {
	Question       QuestionView `json:"question"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	TimeLimit      int          `json:"timeLimit"`
}

type AnswerResultPayload struct {
	Correct  bool `json:"correct"`
	Score    int  `json:"score"`
	NewTotal int  `json:"newTotal"`
}

type RewardTimePayload struct {
	Message string  `json:"message"`
	Speed   float64 `json:"speed"`
}

type StartMinigamePayload struct {
	Speed float64 `json:"speed"`
}

type StartHackPayload struct {
	Players []PlayerView `json:"players"`
	Speed   float64      `json:"speed"`
}

type GotHackedPayload struct {
	By   string `json:"by"`
	Lost int    `json:"lost"`
}

type HackCompletePayload struct {
	Stolen int    `json:"stolen"`
	From   string `json:"from"`
}

type MinigameResultPayload struct {
	Earned int `json:"earned"`
}

type ScoreUpdatePayload struct {
	Scores []PlayerView `json:"scores"`
}

type GameEndedPayload struct {
	Scores []FinalScore `json:"scores"`
	Reason string       `json:"reason"`
}

type KickedPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
