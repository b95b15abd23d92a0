package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"card-duel-server/api"
	"card-duel-server/auth"
	"card-duel-server/cards"
	"card-duel-server/config"
	"card-duel-server/lobby"
	"card-duel-server/loghandler"
	"card-duel-server/matchmaking"
	"card-duel-server/storage"
	"card-duel-server/ws"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, cfg.Level())))
	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}

// newServer wires every component and returns the HTTP handler serving /ws and /api.
// Background loops stop when ctx is cancelled; release closes the deck store.
func newServer(ctx context.Context, cfg *config.Config) (handler http.Handler, release func(), err error) {
	catalog, err := cards.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	if _, err := catalog.Deck(cfg.DefaultDeck); err != nil {
		return nil, nil, fmt.Errorf("default deck: %w", err)
	}
	slog.Info("catalog loaded", "tag", "main", "cards", len(catalog.All()), "decks", len(catalog.DeckNames()))

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect deck store: %w", err)
	}

	var deckStore cards.DeckStore
	var deckLister api.DeckLister
	if store != nil {
		deckStore, deckLister = store, store
	} else {
		slog.Info("DATABASE_URL is not set; only catalog decks are available", "tag", "main")
	}
	resolver := cards.NewResolver(catalog, deckStore, cfg.DefaultDeck)

	var wsAuth ws.TokenVerifier
	var apiAuth api.TokenVerifier
	if cfg.AuthBaseURL != "" {
		verifier, err := auth.NewVerifier(cfg.AuthBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("auth: %w", err)
		}
		wsAuth, apiAuth = verifier, verifier
		slog.Info("auth configured", "tag", "main", "base_url", cfg.AuthBaseURL)
	} else {
		slog.Info("AUTH_BASE_URL is not set; players join as guests", "tag", "main")
	}

	matches := matchmaking.NewRegistry()
	mm := matchmaking.NewMatchmaker(matches, resolver)
	go mm.Run(ctx)

	lobbies := lobby.NewRegistry(cfg.LobbyStaleAfter())

	hub := ws.NewHub(cfg, ws.Deps{
		Matchmaker: mm,
		Matches:    matches,
		Lobbies:    lobbies,
		Decks:      resolver,
		Auth:       wsAuth,
	})
	go hub.Run(ctx)
	go lobbies.RunCleanup(ctx, cfg.LobbyCleanupInterval(), hub.LobbyExpired)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	api.NewHandler(catalog, lobbies, matches, deckLister, apiAuth).Register(mux)

	return mux, store.Close, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	handler, release, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WSPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("card duel server listening", "tag", "main", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped cleanly", "tag", "main")
	return nil
}
