package rest

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

const shutdownTimeout = 5 * time.Second

//go:embed templates/page.html
var templatesFS embed.FS

type gameManager interface {
	State(ctx context.Context, id string) (*presenter.View, error)
	Play(ctx context.Context, id string, cell int) (*presenter.View, error)
	JumpTo(ctx context.Context, id string, move int) (*presenter.View, error)
	Restart(ctx context.Context, id string) (*presenter.View, error)
	ToggleOrder(ctx context.Context, id string) (*presenter.View, error)
}

type Server struct {
	logger  *slog.Logger
	manager gameManager

	page       *template.Template
	socketPort string
}

// New - socketPort is where the page connects for live updates, empty disables them.
func New(logger *slog.Logger, manager gameManager, socketPort string) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		manager: manager,

		page:       template.Must(template.ParseFS(templatesFS, "templates/page.html")),
		socketPort: socketPort,
	}
}

// Routes - html pages post forms and redirect back, /api speaks JSON.
func (that *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/ping", pingHandler)

	router.Get("/", that.handlePage)
	router.Post("/play/{cell}", that.formHandler(that.play))
	router.Post("/jump/{move}", that.formHandler(that.jump))
	router.Post("/restart", that.formHandler(that.restart))
	router.Post("/order", that.formHandler(that.toggleOrder))

	router.Route("/api", func(r chi.Router) {
		r.Get("/state", that.apiHandler(that.state))
		r.Post("/cells/{cell}", that.apiHandler(that.play))
		r.Post("/history/{move}", that.apiHandler(that.jump))
		r.Post("/restart", that.apiHandler(that.restart))
		r.Post("/order", that.apiHandler(that.toggleOrder))
	})

	return router
}

// Start - serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
