package http

import (
	"encoding/json"
	"log"
	"net/http"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades connections and dispatches inbound events to the
// game engine. Connection ids are assigned server-side; clients never pick
// their own identity.
type WSHandler struct {
	engine   *app.GameEngine
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.GameEngine, hub *Hub) *WSHandler {
	return &WSHandler{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	QuizID string `json:"quizId"`
}

type joinRoomPayload struct {
	Pin      string `json:"pin"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type startGamePayload struct {
	Pin      string `json:"pin"`
	Duration int    `json:"duration"`
}

type submitAnswerPayload struct {
	Pin       string `json:"pin"`
	Answer    int    `json:"answer"`
	TimeSpent int    `json:"timeSpent"`
}

type pinPayload struct {
	Pin string `json:"pin"`
}

type rewardSelectedPayload struct {
	Pin      string `json:"pin"`
	PlayerID string `json:"playerId"`
	Reward   string `json:"reward"`
}

type hackSuccessPayload struct {
	Pin          string `json:"pin"`
	HackerID     string `json:"hackerId"`
	TargetID     string `json:"targetId"`
	StolenPoints int    `json:"stolenPoints"`
}

type minigameCompletePayload struct {
	Pin          string `json:"pin"`
	PlayerID     string `json:"playerId"`
	EarnedPoints int    `json:"earnedPoints"`
}

type kickPlayerPayload struct {
	Pin      string `json:"pin"`
	PlayerID string `json:"playerId"`
}

// ServeWS runs the read loop for one connection. Malformed payloads are
// dropped; operation errors go back to the sender as directed error
// events and are never fatal to the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	h.hub.Register(connID, conn)
	defer h.hub.Deregister(connID)
	defer h.engine.Disconnect(connID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(connID, r, inbound)
	}
}

func (h *WSHandler) dispatch(connID string, r *http.Request, inbound inboundMessage) {
	switch inbound.Type {
	case "create-room":
		var p createRoomPayload
		if !h.bind(inbound, &p) {
			return
		}
		if _, err := h.engine.CreateRoom(r.Context(), p.QuizID, connID); err != nil {
			h.sendError(connID, domain.EventRoomError, err)
		}
	case "join-room":
		var p joinRoomPayload
		if !h.bind(inbound, &p) {
			return
		}
		if err := h.engine.JoinRoom(p.Pin, p.Nickname, p.Password, connID); err != nil {
			h.sendError(connID, domain.EventJoinError, err)
		}
	case "start-game":
		var p startGamePayload
		if !h.bind(inbound, &p) {
			return
		}
		if err := h.engine.StartGame(p.Pin, connID, p.Duration); err != nil {
			h.sendError(connID, domain.EventGameError, err)
		}
	case "submit-answer":
		var p submitAnswerPayload
		if !h.bind(inbound, &p) {
			return
		}
		h.engine.SubmitAnswer(p.Pin, connID, p.Answer, p.TimeSpent)
	case "next-question":
		var p pinPayload
		if !h.bind(inbound, &p) {
			return
		}
		if err := h.engine.NextQuestion(p.Pin, connID); err != nil {
			h.sendError(connID, domain.EventGameError, err)
		}
	case "continue-game":
		var p pinPayload
		if !h.bind(inbound, &p) {
			return
		}
		if err := h.engine.ContinueGame(p.Pin, connID); err != nil {
			h.sendError(connID, domain.EventGameError, err)
		}
	case "reward-selected":
		var p rewardSelectedPayload
		if !h.bind(inbound, &p) {
			return
		}
		h.engine.SelectReward(p.Pin, p.PlayerID, p.Reward)
	case "hack-success":
		var p hackSuccessPayload
		if !h.bind(inbound, &p) {
			return
		}
		h.engine.HackSuccess(p.Pin, p.HackerID, p.TargetID, p.StolenPoints)
	case "minigame-complete":
		var p minigameCompletePayload
		if !h.bind(inbound, &p) {
			return
		}
		h.engine.MinigameComplete(p.Pin, p.PlayerID, p.EarnedPoints)
	case "end-game":
		var p pinPayload
		if !h.bind(inbound, &p) {
			return
		}
		h.endGame(connID, p.Pin)
	case "kick-player":
		var p kickPlayerPayload
		if !h.bind(inbound, &p) {
			return
		}
		if err := h.engine.KickPlayer(p.Pin, connID, p.PlayerID); err != nil {
			h.sendError(connID, domain.EventGameError, err)
		}
	default:
		h.hub.ToConn(connID, domain.Event{
			Type:    domain.EventGameError,
			Payload: domain.ErrorPayload{Message: "unsupported message type"},
		})
	}
}

func (h *WSHandler) endGame(connID, pin string) {
	if err := h.engine.EndGameByHost(pin, connID); err != nil {
		h.sendError(connID, domain.EventGameError, err)
	}
}

func (h *WSHandler) bind(inbound inboundMessage, target any) bool {
	if err := json.Unmarshal(inbound.Payload, target); err != nil {
		log.Printf("dropping malformed %s payload: %v", inbound.Type, err)
		return false
	}
	return true
}

func (h *WSHandler) sendError(connID, eventType string, err error) {
	h.hub.ToConn(connID, domain.Event{
		Type:    eventType,
		Payload: domain.ErrorPayload{Message: err.Error()},
	})
}
