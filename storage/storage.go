package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The deck collection is owned by an external service; this package only reads it.
// Expected tables:
//
//	decks      (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, name TEXT NOT NULL, updated_at TIMESTAMPTZ)
//	deck_cards (deck_id TEXT REFERENCES decks(id), position INT NOT NULL, card_id TEXT NOT NULL, quantity INT NOT NULL DEFAULT 1)

const deckCardsSQL = `
SELECT dc.card_id, dc.quantity
FROM deck_cards dc
JOIN decks d ON d.id = dc.deck_id
WHERE d.id = $1 AND d.user_id = $2
ORDER BY dc.position, dc.card_id`

const listDecksSQL = `
SELECT d.id, d.name, COALESCE(SUM(dc.quantity), 0)
FROM decks d
LEFT JOIN deck_cards dc ON dc.deck_id = d.id
WHERE d.user_id = $1
GROUP BY d.id, d.name
ORDER BY d.name, d.id`

// maxCopies bounds a single deck_cards row so a bad quantity cannot blow up a deck.
const maxCopies = 20

// Store reads user decks from Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres.
// If databaseURL is empty, NewStore returns (nil, nil) and only catalog decks are available.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// cardCount is one deck_cards row.
type cardCount struct {
	CardID   string
	Quantity int
}

// DeckCardIDs returns the card IDs of userID's deck in deck order, one entry per copy.
// An unknown deck yields an empty list.
func (s *Store) DeckCardIDs(ctx context.Context, userID, deckID string) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, deckCardsSQL, deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("query deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var counts []cardCount
	for rows.Next() {
		var c cardCount
		if err := rows.Scan(&c.CardID, &c.Quantity); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expand(counts), nil
}

// expand turns (card, quantity) rows into one ID per copy.
func expand(counts []cardCount) []string {
	var out []string
	for _, c := range counts {
		n := c.Quantity
		if n > maxCopies {
			n = maxCopies
		}
		for i := 0; i < n; i++ {
			out = append(out, c.CardID)
		}
	}
	return out
}

// DeckSummary describes one of a user's saved decks.
type DeckSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
}

// ListDecks returns userID's saved decks ordered by name.
func (s *Store) ListDecks(ctx context.Context, userID string) ([]DeckSummary, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, listDecksSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	out := []DeckSummary{}
	for rows.Next() {
		var d DeckSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.CardCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
