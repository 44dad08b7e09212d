package flow

import "context"

// Choice is one labeled option offered to the user. Value is what comes
// back in the button event; rendering as buttons vs typed replies is the
// presenter's concern.
type Choice struct {
	Label string
	Value string
}

// NamedChoice builds a choice whose label and value are the same string.
func NamedChoice(s string) Choice {
	return Choice{Label: s, Value: s}
}

// Presenter renders engine output back to the chat. Delivery is
// fire-and-forget from the engine's perspective: the next state never
// depends on a delivery confirmation, so handlers ignore returned errors
// beyond logging.
type Presenter interface {
	// SendText posts a new message, optionally with choices.
	SendText(ctx context.Context, chatID int64, text string, choices ...Choice) error
	// EditLast rewrites the bot's last menu message if possible, falling
	// back to a fresh message otherwise.
	EditLast(ctx context.Context, chatID int64, text string, choices ...Choice) error
	// SendMedia posts a stored photo by its media reference.
	SendMedia(ctx context.Context, chatID int64, ref string) error
}
