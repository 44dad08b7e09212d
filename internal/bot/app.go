package bot

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	corebootstrap "github.com/botmama/botmama/core/bootstrap"
	coreconfig "github.com/botmama/botmama/core/config"
	coretelegram "github.com/botmama/botmama/core/telegram"
	tgmiddleware "github.com/botmama/botmama/core/telegram/middleware"
	"github.com/botmama/botmama/core/telegram/sender"
	"github.com/botmama/botmama/internal/flow"
	"github.com/botmama/botmama/internal/media"
	"github.com/botmama/botmama/internal/recipes"
)

// App owns the application wiring: configuration, storage, the flow
// engine, and the Telegram surface.
type App struct {
	cfg *coreconfig.Config

	db         *sqlx.DB
	repo       recipes.Repository
	media      *media.DiskStore
	dispatcher *sender.Dispatcher
	presenter  *Presenter
	engine     *flow.Engine
}

// Load reads configuration only; Bootstrap does the heavy lifting.
func Load(path string) (*App, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg}, nil
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg }

// Bootstrap initializes logging, the database, the media store, and the
// flow engine.
func (a *App) Bootstrap() error {
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   a.cfg,
		Database: a.cfg.Database,
	})
	if err != nil {
		return err
	}
	a.db = res.DB

	store, err := media.NewDiskStore(a.cfg.Media.Dir)
	if err != nil {
		_ = a.db.Close()
		return err
	}
	a.media = store
	a.repo = recipes.NewPostgresRepository(a.db)

	// One worker keeps outbound messages in the order the flows produced
	// them.
	a.dispatcher = sender.NewDispatcher(sender.Options{Workers: 1})
	a.presenter = NewPresenter(a.dispatcher, a.media)

	a.engine = flow.NewEngine(
		flow.Deps{Repo: a.repo, Media: a.media, Presenter: a.presenter},
		time.Duration(a.cfg.Flows.IdleTimeoutSeconds)*time.Second,
		flow.NewAddFlow(),
		flow.NewViewFlow(),
		flow.NewEditFlow(),
		flow.NewDeleteFlow(),
	)
	return nil
}

// TelegramRunOptions assembles the bot surface for the core runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.engine == nil {
		return coretelegram.RunOptions{}, errors.New("bot: app not bootstrapped")
	}

	router := NewRouter(a.engine, a.repo)
	reg := coretelegram.NewRegistry()
	registerCommands(reg, router)

	middlewares := []coretelegram.Middleware{
		{Name: "recover", Use: tgmiddleware.RecoverMiddleware},
		{Name: "logging", Use: tgmiddleware.LoggerMiddleware},
	}
	if a.cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(a.cfg.RateLimit.ExcludeUpdates))
		for _, v := range a.cfg.RateLimit.ExcludeUpdates {
			exclude[v] = struct{}{}
		}
		middlewares = append(middlewares, coretelegram.Middleware{
			Name: "rate_limit",
			Use: tgmiddleware.RateLimitMiddleware(tgmiddleware.RateLimitOptions{
				Interval: time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:  exclude,
			}),
		})
	}

	routes := []coretelegram.Route{
		{Endpoint: tele.OnText, Handler: router.Text},
		{Endpoint: tele.OnPhoto, Handler: router.Photo},
		{Endpoint: tele.OnCallback, Handler: router.Callback},
	}
	for name, cmd := range reg.Commands() {
		routes = append(routes, coretelegram.Route{Endpoint: name, Handler: cmd.Handler})
	}

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.presenter.Bind(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.engine.Close()
			return a.db.Close()
		},
	}, nil
}
