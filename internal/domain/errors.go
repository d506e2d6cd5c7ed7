package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when quiz content fails validation at save time.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrRoomNotFound is returned when no live room exists for a PIN.
	ErrRoomNotFound = errors.New("room not found")
	// ErrGameAlreadyStarted rejects joins once a room has left the lobby.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrPasswordTaken rejects a join whose password collides inside the room.
	ErrPasswordTaken = errors.New("password already taken")
	// ErrNotHost is returned when a non-host connection attempts a host-only action.
	ErrNotHost = errors.New("only the host may do that")
	// ErrNoPlayers rejects starting a game with an empty lobby.
	ErrNoPlayers = errors.New("no players in room")
	// ErrPlayerNotFound is returned when a player id is not part of the room.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrInvalidState is returned for actions outside their valid game state.
	ErrInvalidState = errors.New("invalid game state for action")
	// ErrUnauthorized is returned for quiz mutations without a valid admin key.
	ErrUnauthorized = errors.New("unauthorized")
)
