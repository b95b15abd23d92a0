package cards

import (
	"context"
	"fmt"
)

// DeckStore reads user-authored decks from the external collection service.
type DeckStore interface {
	DeckCardIDs(ctx context.Context, userID, deckID string) ([]string, error)
}

// Resolver turns a player's deck choice into the ordered definitions a match is built from.
// Named templates win; anything else is looked up in Store when one is configured.
type Resolver struct {
	Catalog     *Catalog
	Store       DeckStore
	DefaultDeck string
}

// NewResolver returns a resolver over the catalog. store may be nil.
func NewResolver(catalog *Catalog, store DeckStore, defaultDeck string) *Resolver {
	return &Resolver{Catalog: catalog, Store: store, DefaultDeck: defaultDeck}
}

// ResolveDeck returns the deck for userID's choice deckID. An empty choice selects DefaultDeck.
func (r *Resolver) ResolveDeck(ctx context.Context, userID, deckID string) ([]Definition, error) {
	if deckID == "" {
		deckID = r.DefaultDeck
	}
	if defs, err := r.Catalog.Deck(deckID); err == nil {
		return defs, nil
	}
	if r.Store == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeck, deckID)
	}
	ids, err := r.Store.DeckCardIDs(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck %s: %w", deckID, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeck, deckID)
	}
	return r.Catalog.Definitions(ids)
}
