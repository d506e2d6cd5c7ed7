package domain

import "fmt"

// GameState is the closed set of room lifecycle phases.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StatePlaying  GameState = "playing"
	StateReward   GameState = "reward"
	StateFinished GameState = "finished"
)

// transitions is the only place lifecycle moves are allowed or denied.
// Finished is terminal and reachable from every other state.
var transitions = map[GameState][]GameState{
	StateWaiting:  {StatePlaying, StateFinished},
	StatePlaying:  {StateReward, StateFinished},
	StateReward:   {StatePlaying, StateFinished},
	StateFinished: {},
}

// Transition validates and returns the next state.
func (s GameState) Transition(to GameState) (GameState, error) {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidState, s, to)
}
