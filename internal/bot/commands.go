package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/botmama/botmama/core/telegram"
	"github.com/botmama/botmama/core/telegram/commands"
	"github.com/botmama/botmama/core/telegram/format"
	tghelpers "github.com/botmama/botmama/core/telegram/helpers"
	"github.com/botmama/botmama/internal/flow"
)

func registerCommands(reg *coretelegram.Registry, router *Router) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     router.Start,
		Description: "meet Mama and see what she can do",
	})
	reg.RegisterCommand(flow.CmdAdd, commands.Command{
		Handler:     router.EntryHandler(flow.CmdAdd),
		Description: "add a new recipe",
	})
	reg.RegisterCommand(flow.CmdView, commands.Command{
		Handler:     router.EntryHandler(flow.CmdView),
		Description: "view one of your recipes",
	})
	reg.RegisterCommand(flow.CmdEdit, commands.Command{
		Handler:     router.EntryHandler(flow.CmdEdit),
		Description: "edit one of your recipes",
	})
	reg.RegisterCommand(flow.CmdDelete, commands.Command{
		Handler:     router.EntryHandler(flow.CmdDelete),
		Description: "delete one of your recipes",
	})
}

// Start greets the user and lists the available commands.
func (r *Router) Start(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	r.upsertUser(ctx, c)

	user := c.Sender()
	if user == nil {
		return nil
	}
	name, err := format.EscapeMarkdown(displayName(user), format.MarkdownV2)
	if err != nil {
		return err
	}
	mention := "[" + name + "](tg://user?id=" + strconv.FormatInt(user.ID, 10) + ")"

	text := "Hi " + mention + "\\! I'm BotMaMa\\! I can help you manage your recipes\\.\n" +
		"\nTo add a new recipe, use /add\\." +
		"\nTo view your recipes, use /view\\." +
		"\nTo edit your recipes, use /edit\\." +
		"\nTo delete one of your recipes, use /delete\\."
	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
}
