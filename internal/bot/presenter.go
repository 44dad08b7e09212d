package bot

import (
	"context"
	"errors"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/botmama/botmama/core/telegram/keyboard"
	"github.com/botmama/botmama/core/telegram/sender"
	"github.com/botmama/botmama/internal/flow"
	"github.com/botmama/botmama/internal/media"
)

// flowCallbackUnique tags every inline button the flows render so the
// callback route can tell them apart from foreign callbacks.
const flowCallbackUnique = "flow"

var errNotBound = errors.New("bot: presenter not bound to a running bot")

// Presenter renders flow output through the outbound dispatcher. Delivery
// is asynchronous: flows never wait on Telegram, and the dispatcher's
// single worker keeps messages in order.
type Presenter struct {
	dispatcher *sender.Dispatcher
	media      *media.DiskStore

	mu   sync.Mutex
	bot  *tele.Bot
	menu map[int64]*tele.Message
}

// NewPresenter builds a presenter that is not yet bound to a bot.
func NewPresenter(dispatcher *sender.Dispatcher, store *media.DiskStore) *Presenter {
	return &Presenter{
		dispatcher: dispatcher,
		media:      store,
		menu:       make(map[int64]*tele.Message),
	}
}

// Bind attaches the live bot once the runtime has built it.
func (p *Presenter) Bind(bot *tele.Bot) {
	p.mu.Lock()
	p.bot = bot
	p.mu.Unlock()
}

func (p *Presenter) SendText(ctx context.Context, chatID int64, text string, choices ...flow.Choice) error {
	markup := choiceMarkup(choices)
	return p.dispatcher.Enqueue(ctx, "flow.send", func() error {
		return p.deliver(chatID, text, markup)
	})
}

func (p *Presenter) EditLast(ctx context.Context, chatID int64, text string, choices ...flow.Choice) error {
	markup := choiceMarkup(choices)
	return p.dispatcher.Enqueue(ctx, "flow.edit", func() error {
		bot := p.botRef()
		if bot == nil {
			return errNotBound
		}
		if last := p.lastMenu(chatID); last != nil {
			var (
				msg *tele.Message
				err error
			)
			if markup != nil {
				msg, err = bot.Edit(last, text, markup)
			} else {
				msg, err = bot.Edit(last, text)
			}
			if err == nil {
				p.remember(chatID, msg, markup != nil)
				return nil
			}
			// The message may be too old to edit; fall through to a
			// fresh send.
		}
		return p.deliver(chatID, text, markup)
	})
}

func (p *Presenter) SendMedia(ctx context.Context, chatID int64, ref string) error {
	if p.media == nil || ref == "" {
		return nil
	}
	path := p.media.Path(ref)
	return p.dispatcher.Enqueue(ctx, "flow.media", func() error {
		bot := p.botRef()
		if bot == nil {
			return errNotBound
		}
		photo := &tele.Photo{File: tele.FromDisk(path)}
		_, err := bot.Send(tele.ChatID(chatID), photo)
		return err
	})
}

func (p *Presenter) deliver(chatID int64, text string, markup *tele.ReplyMarkup) error {
	bot := p.botRef()
	if bot == nil {
		return errNotBound
	}
	var (
		msg *tele.Message
		err error
	)
	if markup != nil {
		msg, err = bot.Send(tele.ChatID(chatID), text, markup)
	} else {
		msg, err = bot.Send(tele.ChatID(chatID), text)
	}
	if err != nil {
		return err
	}
	p.remember(chatID, msg, markup != nil)
	return nil
}

func (p *Presenter) botRef() *tele.Bot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bot
}

// remember tracks the chat's last menu message so EditLast can rewrite it.
// A plain message in between invalidates the menu.
func (p *Presenter) remember(chatID int64, msg *tele.Message, isMenu bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if isMenu {
		p.menu[chatID] = msg
	} else {
		delete(p.menu, chatID)
	}
}

func (p *Presenter) lastMenu(chatID int64) *tele.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.menu[chatID]
}

func choiceMarkup(choices []flow.Choice) *tele.ReplyMarkup {
	if len(choices) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(choices))
	for _, ch := range choices {
		btns = append(btns, keyboard.InlineBtn{
			Text:   ch.Label,
			Unique: flowCallbackUnique,
			Data:   ch.Value,
		})
	}
	return keyboard.InlineButtons(btns)
}
