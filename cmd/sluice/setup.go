package main

import (
	"log/slog"

	"github.com/aretw0/sluice"
	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/internal/rpc"
	redisadapter "github.com/aretw0/sluice/pkg/adapters/redis"
	"github.com/aretw0/sluice/pkg/observability"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildEngine assembles an Engine from the command's persistent flags.
// The returned cleanup closes the redis client when one was opened.
func buildEngine(cmd *cobra.Command, metrics *observability.Metrics) (*sluice.Engine, func(), error) {
	levelFlag, _ := cmd.Flags().GetString("log-level")
	redisAddr, _ := cmd.Flags().GetString("redis")

	logger := logging.New(parseLevel(levelFlag))
	transport := rpc.New(rpc.WithLogger(logger))

	opts := []sluice.Option{sluice.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, sluice.WithMetrics(metrics))
	}

	cleanup := func() {}
	if redisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		opts = append(opts,
			sluice.WithStateStore(redisadapter.NewFromClient(client)),
			sluice.WithLocker(redisadapter.NewLocker(client, "sluice:lock:")),
		)
		cleanup = func() { _ = client.Close() }
	}

	return sluice.New(transport, opts...), cleanup, nil
}
