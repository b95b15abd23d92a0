package storage

import "context"

// DeckReader abstracts the read-only deck collection.
// Implementations can be swapped for testing (mocks) or different backends.
type DeckReader interface {
	DeckCardIDs(ctx context.Context, userID, deckID string) ([]string, error)
	ListDecks(ctx context.Context, userID string) ([]DeckSummary, error)
	Close()
}

// Ensure *Store implements DeckReader at compile time.
var _ DeckReader = (*Store)(nil)
