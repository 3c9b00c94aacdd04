package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
}

// publisher - receives the view of a session after every change.
type publisher interface {
	Publish(sessionID string, view *presenter.View)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, *presenter.View) {}

// action - mutates a game and its session, reporting whether anything changed.
type action func(game *tictactoe.GameState, session *entity.Session) (bool, error)

// GameManager - runs user actions against stored sessions one at a time.
type GameManager struct {
	logger *slog.Logger

	mu          sync.Mutex
	sessionRepo sessionRepo
	publisher   publisher
}

func NewGameManager(logger *slog.Logger, sessionRepo sessionRepo, publisher publisher) *GameManager {
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),

		sessionRepo: sessionRepo,
		publisher:   publisher,
	}
}

// GetOrCreateSession - loads the session, or starts a new game under id.
// An empty id gets a freshly generated one.
func (that *GameManager) GetOrCreateSession(ctx context.Context, id string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.getOrCreateSession(ctx, id)
}

func (that *GameManager) State(ctx context.Context, id string) (*presenter.View, error) {
	return that.run(ctx, id, func(*tictactoe.GameState, *entity.Session) (bool, error) {
		return false, nil
	})
}

// Play - clicks a cell. Occupied cells and won games are ignored.
func (that *GameManager) Play(ctx context.Context, id string, cell int) (*presenter.View, error) {
	if !entity.IsValidIndex(cell) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	return that.run(ctx, id, func(game *tictactoe.GameState, _ *entity.Session) (bool, error) {
		return game.ApplyMove(cell), nil
	})
}

func (that *GameManager) JumpTo(ctx context.Context, id string, move int) (*presenter.View, error) {
	return that.run(ctx, id, func(game *tictactoe.GameState, _ *entity.Session) (bool, error) {
		previous := game.CurrentMove()

		if err := game.JumpTo(move); err != nil {
			return false, fmt.Errorf("failed to jump: %w", err)
		}

		return previous != move, nil
	})
}

func (that *GameManager) Restart(ctx context.Context, id string) (*presenter.View, error) {
	return that.run(ctx, id, func(game *tictactoe.GameState, _ *entity.Session) (bool, error) {
		game.Restart()
		return true, nil
	})
}

func (that *GameManager) ToggleOrder(ctx context.Context, id string) (*presenter.View, error) {
	return that.run(ctx, id, func(_ *tictactoe.GameState, session *entity.Session) (bool, error) {
		session.Order = session.Order.Toggle()
		return true, nil
	})
}

// run - load, act, save when changed, then notify subscribers.
func (that *GameManager) run(ctx context.Context, id string, act action) (*presenter.View, error) {
	log := that.logger.With("method", "run", "session", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.getOrCreateSession(ctx, id)
	if err != nil {
		return nil, err
	}

	game, err := tictactoe.Restore(session.History, session.CurrentMove)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game: %w", err)
	}

	changed, err := act(game, session)
	if err != nil {
		return nil, err
	}

	view := presenter.Build(session.ID, game, session.Order)

	if !changed {
		return view, nil
	}

	session.History = game.History()
	session.CurrentMove = game.CurrentMove()

	if err = that.updateSession(ctx, session); err != nil {
		return nil, err
	}

	that.publisher.Publish(session.ID, view)

	log.Debug("session updated", "current_move", session.CurrentMove, "snapshots", len(session.History))

	return view, nil
}

func (that *GameManager) getOrCreateSession(ctx context.Context, id string) (*entity.Session, error) {
	if id != "" {
		session, err := that.sessionRepo.GetByID(ctx, id)
		if err == nil {
			return normalizeSession(session), nil
		}

		if !errors.Is(err, apperror.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to get session by id: %w", err)
		}
	}

	return that.createSession(ctx, id)
}

func (that *GameManager) createSession(ctx context.Context, id string) (*entity.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	session := entity.NewSession(id)
	if err := that.updateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "session", id)

	return session, nil
}

func (that *GameManager) updateSession(ctx context.Context, session *entity.Session) error {
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// normalizeSession - sessions stored without an order read as ascending.
func normalizeSession(session *entity.Session) *entity.Session {
	if err := session.Order.Validate(); err != nil {
		session.Order = entity.OrderAscending
	}

	return session
}
