package cards

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckSize is the number of cards a match deck is built from.
const DeckSize = 20

var (
	ErrUnknownCard = errors.New("unknown card")
	ErrUnknownDeck = errors.New("unknown deck")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// catalogFile is the top-level YAML structure.
type catalogFile struct {
	Cards []Definition `yaml:"cards"`
	Decks []deckEntry  `yaml:"decks"`
}

type deckEntry struct {
	Name  string      `yaml:"name"`
	Cards []cardEntry `yaml:"cards"`
}

type cardEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// Catalog holds card definitions indexed by ID and the named deck templates.
// It is read-only once loaded and safe for concurrent use.
type Catalog struct {
	cards     map[string]Definition
	order     []string // registration order for deterministic All()
	decks     map[string][]string
	deckOrder []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		cards: make(map[string]Definition),
		decks: make(map[string][]string),
	}
}

// Register adds a card definition, replacing any previous definition with the same ID.
func (c *Catalog) Register(def Definition) {
	if _, exists := c.cards[def.ID]; !exists {
		c.order = append(c.order, def.ID)
	}
	c.cards[def.ID] = def
}

// RegisterDeck adds a named deck template as an ordered list of card IDs.
func (c *Catalog) RegisterDeck(name string, cardIDs []string) error {
	for _, id := range cardIDs {
		if _, ok := c.cards[id]; !ok {
			return fmt.Errorf("deck %q: %w: %s", name, ErrUnknownCard, id)
		}
	}
	if _, exists := c.decks[name]; !exists {
		c.deckOrder = append(c.deckOrder, name)
	}
	c.decks[name] = append([]string(nil), cardIDs...)
	return nil
}

// Card returns the definition with the given ID.
func (c *Catalog) Card(id string) (Definition, bool) {
	d, ok := c.cards[id]
	return d, ok
}

// All returns every definition in registration order.
func (c *Catalog) All() []Definition {
	defs := make([]Definition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.cards[id])
	}
	return defs
}

// DeckNames returns the template names in registration order.
func (c *Catalog) DeckNames() []string {
	return append([]string(nil), c.deckOrder...)
}

// Deck materializes the named template into definitions, capped at DeckSize.
func (c *Catalog) Deck(name string) ([]Definition, error) {
	ids, ok := c.decks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeck, name)
	}
	return c.Definitions(ids)
}

// Definitions maps card IDs to definitions in order, capped at DeckSize.
func (c *Catalog) Definitions(ids []string) ([]Definition, error) {
	if len(ids) > DeckSize {
		ids = ids[:DeckSize]
	}
	defs := make([]Definition, 0, len(ids))
	for _, id := range ids {
		d, ok := c.cards[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCard, id)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// ParseCatalog builds a catalog from YAML data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}

	c := NewCatalog()
	for _, def := range cf.Cards {
		if err := validate(def); err != nil {
			return nil, err
		}
		c.Register(def)
	}
	for _, deck := range cf.Decks {
		var ids []string
		for _, entry := range deck.Cards {
			for i := 0; i < entry.Count; i++ {
				ids = append(ids, entry.ID)
			}
		}
		if err := c.RegisterDeck(deck.Name, ids); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalog reads a catalog from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalogYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func validate(def Definition) error {
	if def.ID == "" {
		return errors.New("card without id")
	}
	switch def.Kind {
	case KindUnit, KindStructure:
		if def.Health <= 0 {
			return fmt.Errorf("card %q: %s needs positive health", def.ID, def.Kind)
		}
	case KindSpell:
		if def.Effect.Kind == EffectNone {
			return fmt.Errorf("card %q: spell without effect", def.ID)
		}
	default:
		return fmt.Errorf("card %q: unknown kind %q", def.ID, def.Kind)
	}
	if def.Cost < 0 {
		return fmt.Errorf("card %q: negative cost", def.ID)
	}
	return nil
}
