package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/scholarfeed/internal/api"
	"github.com/scholarfeed/internal/api/auth"
	"github.com/scholarfeed/internal/config"
	"github.com/scholarfeed/internal/database"
	"github.com/scholarfeed/internal/jobqueue"
	"github.com/scholarfeed/internal/logging"
	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/internal/social"
	"github.com/scholarfeed/internal/store"
)

// ServeCommand returns the CLI command that runs the API and websocket
// server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the ScholarFeed server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the server (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cfg.Log.Level)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	st := store.New(pool)
	tokens := auth.NewTokenService(st, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	registry := realtime.NewRegistry(cfg.Realtime.SendBuffer)
	dispatcher := realtime.NewDispatcher(registry)

	posts := social.NewPostService(st, dispatcher)
	comments := social.NewCommentService(st, dispatcher)
	follows := social.NewFollowService(st, dispatcher)
	notifications := social.NewNotificationService(st)
	users := social.NewUserService(st, dispatcher)

	ws := realtime.NewHandler(tokens, st, registry, dispatcher, realtime.HandlerOptions{
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		MessageRate:       cfg.Realtime.MessageRate,
		MessageBurst:      cfg.Realtime.MessageBurst,
	})

	jq, err := jobqueue.New(pool, st, notifications)
	if err != nil {
		return fmt.Errorf("failed to create job queue: %w", err)
	}
	if err := jq.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job queue: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := jq.Stop(stopCtx); err != nil {
			log.Warn().Err(err).Msg("job queue shutdown")
		}
	}()

	server := api.NewServer(cfg, api.Deps{
		Store:         st,
		Tokens:        tokens,
		Registry:      registry,
		Posts:         posts,
		Comments:      comments,
		Follows:       follows,
		Notifications: notifications,
		Users:         users,
		WS:            ws,
	})

	log.Info().Int("port", cfg.Server.Port).Msg("starting server")
	return server.Start()
}
