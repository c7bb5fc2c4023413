package mylog

import (
	"context"
	"log/slog"
	"os"

	"gmtracker/app/config"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// Records carrying a "telegram" attr are user-visible notifications: parse
// warnings, aborted generations, configuration errors. Errors go there too.

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config) error {
	router := slogmulti.Router()

	router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),

			func(_ context.Context, r slog.Record) bool {
				if r.Level >= slog.LevelError {
					return true
				}

				notify := false

				r.Attrs(func(attr slog.Attr) bool {
					if attr.Key == "telegram" {
						notify = true
						return false
					}

					return true
				})

				return notify
			},
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}
