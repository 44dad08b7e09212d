package flow

import (
	"context"
	"errors"

	"github.com/botmama/botmama/core/logger"
	"github.com/botmama/botmama/internal/recipes"
	"log/slog"
)

const msgRecipeGone = "Sorry, Mama couldn't find the recipe."

// say posts a message; delivery failures are logged, never acted on.
func say(ctx context.Context, d Deps, s *Session, text string, choices ...Choice) {
	if d.Presenter == nil {
		return
	}
	if err := d.Presenter.SendText(ctx, s.ChatID, text, choices...); err != nil {
		logger.Warn(ctx, "flow", "present.send_failed",
			slog.Int64("chat_id", s.ChatID),
			slog.String("err", err.Error()),
		)
	}
}

// rewrite edits the bot's last menu message in place.
func rewrite(ctx context.Context, d Deps, s *Session, text string, choices ...Choice) {
	if d.Presenter == nil {
		return
	}
	if err := d.Presenter.EditLast(ctx, s.ChatID, text, choices...); err != nil {
		logger.Warn(ctx, "flow", "present.edit_failed",
			slog.Int64("chat_id", s.ChatID),
			slog.String("err", err.Error()),
		)
	}
}

// showMedia posts the recipe photo by reference.
func showMedia(ctx context.Context, d Deps, s *Session, ref string) {
	if d.Presenter == nil || ref == "" {
		return
	}
	if err := d.Presenter.SendMedia(ctx, s.ChatID, ref); err != nil {
		logger.Warn(ctx, "flow", "present.media_failed",
			slog.Int64("chat_id", s.ChatID),
			slog.String("err", err.Error()),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, recipes.ErrNotFound)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func hasIngredient(rec *recipes.Recipe, name string) bool {
	for _, ing := range rec.Ingredients {
		if ing.Name == name {
			return true
		}
	}
	return false
}

func nameChoices(names []string) []Choice {
	out := make([]Choice, 0, len(names))
	for _, n := range names {
		out = append(out, NamedChoice(n))
	}
	return out
}
