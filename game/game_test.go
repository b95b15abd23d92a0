package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-duel-server/cards"
)

// createTestGame creates a game between alice and bob with distinct decks.
// It returns the game and both players' send channels; the loop is not started.
func createTestGame() (*Game, chan []byte, chan []byte) {
	send0 := make(chan []byte, 100)
	send1 := make(chan []byte, 100)
	g := NewGame("test-1",
		&Seat{ID: alice, Name: "Alice", Send: send0},
		&Seat{ID: bob, Name: "Bob", Send: send1},
		distinctDeck("a", cards.DeckSize),
		distinctDeck("b", cards.DeckSize),
	)
	return g, send0, send1
}

// drainChannel reads all available messages from a channel.
func drainChannel(ch chan []byte) [][]byte {
	var msgs [][]byte
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// waitForMessages waits briefly for messages to arrive, then drains the channel.
func waitForMessages(ch chan []byte, timeout time.Duration) [][]byte {
	var msgs [][]byte
	timer := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		case <-timer:
			return append(msgs, drainChannel(ch)...)
		}
	}
}

func messageTypes(t *testing.T, msgs [][]byte) []string {
	t.Helper()
	var types []string
	for _, raw := range msgs {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		types = append(types, env.Type)
	}
	return types
}

func lastOfType(t *testing.T, msgs [][]byte, typ string, v any) {
	t.Helper()
	types := messageTypes(t, msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		if types[i] == typ {
			require.NoError(t, json.Unmarshal(msgs[i], v))
			return
		}
	}
	t.Fatalf("no %s message in %v", typ, types)
}

func waitDone(t *testing.T, g *Game) {
	t.Helper()
	select {
	case <-g.Done:
	case <-time.After(time.Second):
		t.Fatal("game loop did not exit")
	}
}

func TestGame_BroadcastsInitialState(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	defer g.Submit(Action{Type: ActionDisconnect, PlayerID: alice})

	var s0, s1 GameStateMsg
	lastOfType(t, waitForMessages(send0, 50*time.Millisecond), "game_state", &s0)
	lastOfType(t, waitForMessages(send1, 50*time.Millisecond), "game_state", &s1)

	assert.Equal(t, "test-1", s0.MatchID)
	assert.True(t, s0.IsYourTurn)
	assert.Len(t, s0.Hand, OpeningHand)
	assert.False(t, s1.IsYourTurn)
	assert.Len(t, s1.Hand, OpeningHand+SecondPlayerBonus)
	assert.Equal(t, "Alice", s1.Opponent.Name)
}

func TestGame_ErrorGoesOnlyToActor(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	defer g.Submit(Action{Type: ActionDisconnect, PlayerID: alice})
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	require.True(t, g.Submit(Action{Type: ActionEndTurn, PlayerID: bob}))

	msgs := waitForMessages(send1, 50*time.Millisecond)
	require.Equal(t, []string{"error"}, messageTypes(t, msgs))
	var e struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(msgs[0], &e))
	assert.False(t, e.Success)
	assert.Equal(t, ErrNotYourTurn.Error(), e.Message)
	assert.Empty(t, drainChannel(send0))
}

func TestGame_ActionBroadcastsToBoth(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	defer g.Submit(Action{Type: ActionDisconnect, PlayerID: alice})
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	require.True(t, g.Submit(Action{Type: ActionEndTurn, PlayerID: alice}))

	var s0, s1 GameStateMsg
	lastOfType(t, waitForMessages(send0, 50*time.Millisecond), "game_state", &s0)
	lastOfType(t, waitForMessages(send1, 50*time.Millisecond), "game_state", &s1)
	assert.False(t, s0.IsYourTurn)
	assert.True(t, s1.IsYourTurn)
	assert.Equal(t, 1, s1.You.Mana)
}

func TestGame_PlayCardThroughLoop(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	defer g.Submit(Action{Type: ActionDisconnect, PlayerID: alice})
	var initial GameStateMsg
	lastOfType(t, waitForMessages(send0, 50*time.Millisecond), "game_state", &initial)
	waitForMessages(send1, 50*time.Millisecond)

	// Every card in the test decks is a one-cost unit.
	cardID := initial.Hand[0].InstanceID
	require.True(t, g.Submit(Action{Type: ActionPlayCard, PlayerID: alice, CardID: cardID}))

	var opp GameStateMsg
	lastOfType(t, waitForMessages(send1, 50*time.Millisecond), "game_state", &opp)
	require.Len(t, opp.Opponent.Field, 1)
	assert.Equal(t, cardID, opp.Opponent.Field[0].InstanceID)
	assert.Equal(t, OpeningHand-1, opp.Opponent.HandCount)
}

func TestGame_DisconnectForfeits(t *testing.T) {
	g, send0, send1 := createTestGame()
	finished := make(chan string, 1)
	g.OnFinish = func(id string) { finished <- id }
	go g.Run()
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	require.True(t, g.Submit(Action{Type: ActionDisconnect, PlayerID: alice}))
	waitDone(t, g)

	msgs := drainChannel(send1)
	assert.Equal(t, []string{"opponent_disconnected", "game_state", "game_over"}, messageTypes(t, msgs))
	var over GameOverMsg
	lastOfType(t, msgs, "game_over", &over)
	assert.Equal(t, "win", over.Result)
	assert.Equal(t, bob, over.Winner)
	assert.Equal(t, "opponent_disconnected", over.Reason)

	assert.Empty(t, drainChannel(send0), "the leaving player gets nothing")
	assert.Equal(t, "test-1", <-finished)
	assert.Equal(t, Ended, g.Match.Phase)
}

func TestGame_NaturalEndSendsGameOver(t *testing.T) {
	g, send0, send1 := createTestGame()
	finished := make(chan string, 1)
	g.OnFinish = func(id string) { finished <- id }
	b := player(t, g.Match, bob)
	b.Health = 1
	b.Deck = nil

	go g.Run()
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	// Bob draws into fatigue and dies.
	require.True(t, g.Submit(Action{Type: ActionEndTurn, PlayerID: alice}))
	waitDone(t, g)

	var over0, over1 GameOverMsg
	lastOfType(t, drainChannel(send0), "game_over", &over0)
	lastOfType(t, drainChannel(send1), "game_over", &over1)
	assert.Equal(t, "win", over0.Result)
	assert.Equal(t, "lose", over1.Result)
	assert.Equal(t, "completed", over0.Reason)
	assert.Equal(t, "test-1", <-finished)
}

func TestGame_SubmitAfterDone(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	require.True(t, g.Submit(Action{Type: ActionDisconnect, PlayerID: bob}))
	waitDone(t, g)

	assert.False(t, g.Submit(Action{Type: ActionEndTurn, PlayerID: alice}))
}

func TestGame_AttackWithoutTargetIsRejected(t *testing.T) {
	g, send0, send1 := createTestGame()
	go g.Run()
	defer g.Submit(Action{Type: ActionDisconnect, PlayerID: alice})
	waitForMessages(send0, 50*time.Millisecond)
	waitForMessages(send1, 50*time.Millisecond)

	require.True(t, g.Submit(Action{Type: ActionAttack, PlayerID: alice, AttackerID: "c1"}))

	msgs := waitForMessages(send0, 50*time.Millisecond)
	assert.Equal(t, []string{"error"}, messageTypes(t, msgs))
}
