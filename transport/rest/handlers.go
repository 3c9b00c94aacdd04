package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

var errBadParam = errors.New("bad path parameter")

// actionFunc - runs one user action for the session id.
type actionFunc func(ctx context.Context, id string, r *http.Request) (*presenter.View, error)

type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	View       *presenter.View
	SocketPort string
}

func (that *Server) state(ctx context.Context, id string, _ *http.Request) (*presenter.View, error) {
	return that.manager.State(ctx, id)
}

func (that *Server) play(ctx context.Context, id string, r *http.Request) (*presenter.View, error) {
	cell, err := intParam(r, "cell")
	if err != nil {
		return nil, err
	}

	return that.manager.Play(ctx, id, cell)
}

func (that *Server) jump(ctx context.Context, id string, r *http.Request) (*presenter.View, error) {
	move, err := intParam(r, "move")
	if err != nil {
		return nil, err
	}

	return that.manager.JumpTo(ctx, id, move)
}

func (that *Server) restart(ctx context.Context, id string, _ *http.Request) (*presenter.View, error) {
	return that.manager.Restart(ctx, id)
}

func (that *Server) toggleOrder(ctx context.Context, id string, _ *http.Request) (*presenter.View, error) {
	return that.manager.ToggleOrder(ctx, id)
}

func (that *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handlePage")

	view, err := that.manager.State(r.Context(), sessionID(w, r))
	if err != nil {
		log.Error("failed to get state", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err = that.page.Execute(&buf, pageData{View: view, SocketPort: that.socketPort}); err != nil {
		log.Error("failed to render page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err = buf.WriteTo(w); err != nil {
		log.Error("failed to write page", "error", err)
	}
}

// apiHandler - answers with the resulting view as JSON.
func (that *Server) apiHandler(act actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := act(r.Context(), sessionID(w, r), r)
		if err != nil {
			status := that.statusFor(err)
			writeJSON(w, status, errorResponse{Error: errorMessage(err, status)})
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// formHandler - redirects back to the page after the action.
func (that *Server) formHandler(act actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := act(r.Context(), sessionID(w, r), r); err != nil {
			status := that.statusFor(err)
			http.Error(w, errorMessage(err, status), status)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (that *Server) statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, apperror.ErrInvalidCell):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrMoveOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		that.logger.Error("failed to process request", "error", err)
		return http.StatusInternalServerError
	}
}

func errorMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}

	return err.Error()
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}

	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
