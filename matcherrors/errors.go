package matcherrors

import "errors"

// Session-level sentinel errors. Shared by the matchmaking, lobby and ws packages
// to avoid circular imports.
var (
	ErrMatchNotFound = errors.New("match not found")
	ErrNotInMatch    = errors.New("you are not in a match")
	ErrAlreadyBusy   = errors.New("already in a match, queue or lobby")

	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrLobbyUnavailable   = errors.New("lobby is not open")
	ErrCannotJoinOwnLobby = errors.New("cannot join your own lobby")
	ErrLobbyNotReady      = errors.New("lobby is not ready")
	ErrNotLobbyHost       = errors.New("only the host can start the game")
	ErrNotInLobby         = errors.New("you are not in this lobby")

	ErrNotIdentified    = errors.New("identify with auth or set_name first")
	ErrInvalidToken     = errors.New("invalid auth token")
	ErrAlreadyConnected = errors.New("this player is already connected")
)
