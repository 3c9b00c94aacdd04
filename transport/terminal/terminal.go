// Package terminal plays the game in a text UI built on tview.
package terminal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

const help = "Enter: play / jump   Tab: switch panel   r: restart   s: sort history   q: quit"

type gameManager interface {
	State(ctx context.Context, id string) (*presenter.View, error)
	Play(ctx context.Context, id string, cell int) (*presenter.View, error)
	JumpTo(ctx context.Context, id string, move int) (*presenter.View, error)
	Restart(ctx context.Context, id string) (*presenter.View, error)
	ToggleOrder(ctx context.Context, id string) (*presenter.View, error)
}

type Terminal struct {
	logger    *slog.Logger
	manager   gameManager
	sessionID string

	app     *tview.Application
	board   *tview.Table
	status  *tview.TextView
	history *tview.List

	// moves maps history list rows to move numbers, the list follows the sort order
	moves []int
}

func New(logger *slog.Logger, manager gameManager, sessionID string) *Terminal {
	that := &Terminal{
		logger:    logger.With("component", "terminal"),
		manager:   manager,
		sessionID: sessionID,

		app:     tview.NewApplication(),
		board:   tview.NewTable(),
		status:  tview.NewTextView(),
		history: tview.NewList(),
	}

	that.board.SetSelectable(true, true).SetBorders(true)
	that.board.SetBorder(true).SetTitle(" Tic-Tac-Toe ")

	that.status.SetDynamicColors(true).SetTextAlign(tview.AlignCenter)

	that.history.ShowSecondaryText(false).SetHighlightFullLine(true)
	that.history.SetBorder(true)

	footer := tview.NewTextView().SetText(help).SetTextAlign(tview.AlignCenter)

	game := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(that.status, 1, 0, false).
		AddItem(that.board, 0, 1, true)

	body := tview.NewFlex().
		AddItem(game, 0, 1, true).
		AddItem(that.history, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(footer, 1, 0, false)

	that.app.SetRoot(root, true).SetFocus(that.board)

	return that
}

// Run - blocks until the user quits or ctx is canceled.
func (that *Terminal) Run(ctx context.Context) error {
	view, err := that.manager.State(ctx, that.sessionID)
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}

	that.render(view)

	that.board.SetSelectedFunc(func(row, col int) {
		that.play(ctx, row*entity.BoardSide+col)
	})
	that.history.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		that.jump(ctx, index)
	})
	that.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		return that.handleKey(ctx, event)
	})

	go func() {
		<-ctx.Done()
		that.app.Stop()
	}()

	if err = that.app.Run(); err != nil {
		return fmt.Errorf("failed to run terminal: %w", err)
	}

	return nil
}

// handleKey - global shortcuts, everything else goes to the focused panel.
func (that *Terminal) handleKey(ctx context.Context, event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyTab {
		if that.app.GetFocus() == that.board {
			that.app.SetFocus(that.history)
		} else {
			that.app.SetFocus(that.board)
		}

		return nil
	}

	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'q':
		that.app.Stop()
	case 'r':
		that.apply(that.manager.Restart(ctx, that.sessionID))
	case 's':
		that.apply(that.manager.ToggleOrder(ctx, that.sessionID))
	default:
		return event
	}

	return nil
}

func (that *Terminal) play(ctx context.Context, cell int) {
	that.apply(that.manager.Play(ctx, that.sessionID, cell))
}

func (that *Terminal) jump(ctx context.Context, index int) {
	if index < 0 || index >= len(that.moves) {
		return
	}

	that.apply(that.manager.JumpTo(ctx, that.sessionID, that.moves[index]))
}

func (that *Terminal) apply(view *presenter.View, err error) {
	if err != nil {
		that.logger.Error("failed to apply action", "error", err)
		that.status.SetText("[red]" + tview.Escape(err.Error()))
		return
	}

	that.render(view)
}

func (that *Terminal) render(view *presenter.View) {
	that.renderStatus(view)
	that.renderBoard(view)
	that.renderHistory(view)
}

func (that *Terminal) renderStatus(view *presenter.View) {
	text := tview.Escape(view.Status.Text)

	switch view.Status.Kind {
	case entity.StatusWinner:
		text = "[green::b]" + text
	case entity.StatusDraw:
		text = "[yellow::b]" + text
	}

	that.status.SetText(text)
}

func (that *Terminal) renderBoard(view *presenter.View) {
	for row, cells := range view.Rows() {
		for col, cell := range cells {
			value := cell.Value
			if value == "" {
				value = " "
			}

			tableCell := tview.NewTableCell(" " + value + " ").
				SetAlign(tview.AlignCenter).
				SetExpansion(1)

			if cell.Winning {
				tableCell.SetBackgroundColor(tcell.ColorGreen).SetTextColor(tcell.ColorBlack)
			}

			that.board.SetCell(row, col, tableCell)
		}
	}
}

func (that *Terminal) renderHistory(view *presenter.View) {
	that.history.Clear()
	that.moves = that.moves[:0]

	for _, entry := range view.History {
		label := tview.Escape(entry.Label)
		if entry.Active {
			label = "[::b]" + label
		}

		that.history.AddItem(label, "", 0, nil)
		that.moves = append(that.moves, entry.Move)
	}

	that.history.SetCurrentItem(view.ActiveIndex())
	that.history.SetTitle(fmt.Sprintf(" Move History (s: %s) ", view.OrderToggle))
}
