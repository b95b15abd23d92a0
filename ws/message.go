package ws

import (
	"encoding/json"

	"card-duel-server/game"
	"card-duel-server/lobby"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg identifies the connection with a token from the identity provider.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SetNameMsg identifies the connection as a guest with a display name.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SelectDeckMsg chooses the deck used for the next match.
type SelectDeckMsg struct {
	Type   string `json:"type"`
	DeckID string `json:"deckId"`
}

// FindGameMsg enters the quick-match queue. DeckID overrides the selected deck.
type FindGameMsg struct {
	Type   string `json:"type"`
	DeckID string `json:"deckId,omitempty"`
}

type CreateLobbyMsg struct {
	Type   string `json:"type"`
	DeckID string `json:"deckId,omitempty"`
}

type JoinLobbyMsg struct {
	Type    string `json:"type"`
	LobbyID string `json:"lobbyId"`
	DeckID  string `json:"deckId,omitempty"`
}

// PlayCardMsg plays a card from hand. Target is omitted for untargeted cards.
type PlayCardMsg struct {
	Type   string       `json:"type"`
	CardID string       `json:"cardId"`
	Target *game.Target `json:"target,omitempty"`
}

// AttackMsg orders a unit to attack.
type AttackMsg struct {
	Type       string       `json:"type"`
	AttackerID string       `json:"attackerId"`
	Target     *game.Target `json:"target"`
}

// --- Server-to-Client messages ---

// IdentifiedMsg confirms the player identity bound to this connection.
type IdentifiedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest"`
}

type DeckSelectedMsg struct {
	Type   string `json:"type"`
	DeckID string `json:"deckId"`
}

// WaitingForMatchMsg confirms the player is in the matchmaking queue.
type WaitingForMatchMsg struct {
	Type string `json:"type"`
}

// QueueLeftMsg confirms the player left the matchmaking queue.
type QueueLeftMsg struct {
	Type string `json:"type"`
}

// MatchFoundMsg is sent to both players when a match is created, before its first state.
type MatchFoundMsg struct {
	Type         string `json:"type"`
	MatchID      string `json:"matchId"`
	OpponentID   string `json:"opponentId"`
	OpponentName string `json:"opponentName"`
	YourTurn     bool   `json:"yourTurn"`
}

// LobbyView is a lobby as shown to its members.
type LobbyView struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	HostID    string `json:"hostId"`
	HostName  string `json:"hostName"`
	GuestID   string `json:"guestId,omitempty"`
	GuestName string `json:"guestName,omitempty"`
}

func newLobbyView(l lobby.Lobby) LobbyView {
	return LobbyView{
		ID:        l.ID,
		State:     l.State.String(),
		HostID:    l.HostID,
		HostName:  l.HostName,
		GuestID:   l.GuestID,
		GuestName: l.GuestName,
	}
}

// LobbyMsg is used for lobby_created and lobby_update.
type LobbyMsg struct {
	Type  string    `json:"type"`
	Lobby LobbyView `json:"lobby"`
}

// LobbyClosedMsg tells a member the lobby no longer exists for them.
// Reason is one of left, host_left or expired.
type LobbyClosedMsg struct {
	Type    string `json:"type"`
	LobbyID string `json:"lobbyId"`
	Reason  string `json:"reason"`
}

type LobbiesMsg struct {
	Type    string          `json:"type"`
	Lobbies []lobby.Summary `json:"lobbies"`
}
