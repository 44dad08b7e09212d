package bot

import (
	"context"
	"io"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/botmama/botmama/core/logger"
	"github.com/botmama/botmama/core/telegram/callbacks"
	tghelpers "github.com/botmama/botmama/core/telegram/helpers"
	"github.com/botmama/botmama/internal/flow"
	"github.com/botmama/botmama/internal/recipes"
	"log/slog"
)

// Router translates telebot updates into flow events and feeds the engine.
type Router struct {
	engine *flow.Engine
	repo   recipes.Repository
}

// NewRouter wires the engine and user storage into a router.
func NewRouter(engine *flow.Engine, repo recipes.Repository) *Router {
	return &Router{engine: engine, repo: repo}
}

// EntryHandler returns the handler for a flow entry command.
func (r *Router) EntryHandler(command string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, command)
		userID, chatID, ok := ids(c)
		if !ok {
			return nil
		}
		r.upsertUser(ctx, c)
		_, err := r.engine.Dispatch(ctx, flow.CommandEvent(userID, chatID, command))
		return err
	}
}

// Text handles free text and any command without a registered route.
func (r *Router) Text(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "text")
	userID, chatID, ok := ids(c)
	if !ok {
		return nil
	}
	r.upsertUser(ctx, c)

	txt := c.Text()
	if strings.TrimSpace(txt) == "" {
		return nil
	}
	var ev flow.Event
	if strings.HasPrefix(txt, "/") {
		ev = flow.CommandEvent(userID, chatID, txt)
	} else {
		ev = flow.TextEvent(userID, chatID, txt)
	}

	handled, err := r.engine.Dispatch(ctx, ev)
	if err != nil {
		return err
	}
	if !handled {
		logger.Debug(ctx, "bot", "update.unrouted",
			slog.String("kind", "text"),
			slog.Int64("user_id", userID),
		)
	}
	return nil
}

// Photo downloads the largest size of an incoming photo and forwards it.
func (r *Router) Photo(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "photo")
	userID, chatID, ok := ids(c)
	if !ok {
		return nil
	}
	r.upsertUser(ctx, c)

	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	rc, err := c.Bot().File(&msg.Photo.File)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}

	handled, err := r.engine.Dispatch(ctx, flow.PhotoEvent(userID, chatID, data))
	if err != nil {
		return err
	}
	if !handled {
		logger.Debug(ctx, "bot", "update.unrouted",
			slog.String("kind", "photo"),
			slog.Int64("user_id", userID),
		)
	}
	return nil
}

// Callback forwards flow button presses and acknowledges the press either way.
func (r *Router) Callback(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "callback")
	defer func() { _ = c.Respond() }()

	if callbacks.CallbackKey(c) != flowCallbackUnique {
		return nil
	}
	userID, chatID, ok := ids(c)
	if !ok {
		return nil
	}
	_, err := r.engine.Dispatch(ctx, flow.ButtonEvent(userID, chatID, callbacks.CallbackPayload(c)))
	return err
}

func (r *Router) upsertUser(ctx context.Context, c tele.Context) {
	user := c.Sender()
	chat := c.Chat()
	if user == nil || chat == nil {
		return
	}
	u := recipes.User{ID: user.ID, ChatID: chat.ID, DisplayName: displayName(user)}
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		logger.Warn(ctx, "bot", "user.upsert_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
	}
}

func ids(c tele.Context) (userID, chatID int64, ok bool) {
	user := c.Sender()
	chat := c.Chat()
	if user == nil || chat == nil {
		return 0, 0, false
	}
	return user.ID, chat.ID, true
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	return name
}
