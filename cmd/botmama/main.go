package main

import (
	"fmt"
	"log"

	corecmd "github.com/botmama/botmama/core/cmd"
	"github.com/botmama/botmama/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			app, ok := cfg.(*bot.App)
			if !ok {
				return nil, fmt.Errorf("unexpected config carrier %T", cfg)
			}
			if err := app.Bootstrap(); err != nil {
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatalf("botmama: %v", err)
	}
}
