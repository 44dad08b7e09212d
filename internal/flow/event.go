package flow

import "strings"

// EventKind enumerates the inbound event shapes the engine understands.
type EventKind int

const (
	// EventCommand is a slash command ("/add", "/done", ...).
	EventCommand EventKind = iota
	// EventButton is an inline button press; Text carries the payload.
	EventButton
	// EventText is a free-text message that is not a command.
	EventText
	// EventPhoto is a photo message; Photo carries the raw bytes.
	EventPhoto
)

// Event is one inbound user action, already classified by the transport.
type Event struct {
	Kind    EventKind
	Command string
	Text    string
	Photo   []byte
	UserID  int64
	ChatID  int64
}

// CommandEvent builds a command event. The command is normalized to its
// lowercase first token so "/Add extra" matches "/add".
func CommandEvent(userID, chatID int64, raw string) Event {
	cmd := strings.ToLower(strings.Fields(raw)[0])
	return Event{Kind: EventCommand, Command: cmd, Text: raw, UserID: userID, ChatID: chatID}
}

// ButtonEvent builds a button-press event carrying the callback payload.
func ButtonEvent(userID, chatID int64, payload string) Event {
	return Event{Kind: EventButton, Text: payload, UserID: userID, ChatID: chatID}
}

// TextEvent builds a free-text event.
func TextEvent(userID, chatID int64, text string) Event {
	return Event{Kind: EventText, Text: text, UserID: userID, ChatID: chatID}
}

// PhotoEvent builds a photo event.
func PhotoEvent(userID, chatID int64, data []byte) Event {
	return Event{Kind: EventPhoto, Photo: data, UserID: userID, ChatID: chatID}
}

// Matcher decides whether a transition accepts an event.
type Matcher func(ev Event) bool

// MatchCommand accepts exactly the given command.
func MatchCommand(cmd string) Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventCommand && ev.Command == cmd
	}
}

// MatchAnyCommand accepts any slash command.
func MatchAnyCommand() Matcher {
	return func(ev Event) bool { return ev.Kind == EventCommand }
}

// MatchText accepts any non-empty free-text message.
func MatchText() Matcher {
	return func(ev Event) bool {
		return ev.Kind == EventText && strings.TrimSpace(ev.Text) != ""
	}
}

// MatchChoice accepts a button press or typed text equal to the given value.
// Users on clients without inline keyboards type the label instead.
func MatchChoice(value string) Matcher {
	return func(ev Event) bool {
		return (ev.Kind == EventButton || ev.Kind == EventText) && ev.Text == value
	}
}

// MatchAnyChoice accepts any button press or non-empty text.
func MatchAnyChoice() Matcher {
	return func(ev Event) bool {
		if ev.Kind == EventButton {
			return true
		}
		return ev.Kind == EventText && strings.TrimSpace(ev.Text) != ""
	}
}

// MatchPhoto accepts a photo message.
func MatchPhoto() Matcher {
	return func(ev Event) bool { return ev.Kind == EventPhoto }
}
