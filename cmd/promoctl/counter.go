package main

import (
	"fmt"

	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/infrastructure/messaging"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/redis"
	"github.com/urfave/cli/v2"
)

func counterCommand() *cli.Command {
	return &cli.Command{
		Name:  "counter",
		Usage: "the visitor counter",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the current total",
				Action: showCounter,
			},
			{
				Name:  "bump",
				Usage: "add a random increment, like the scheduled job",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "min", Usage: "defaults to COUNTER_BUMP_MIN"},
					&cli.Int64Flag{Name: "max", Usage: "defaults to COUNTER_BUMP_MAX"},
				},
				Action: bumpCounter,
			},
		},
	}
}

func counterService(e *env, st *persistence.Stores, opts ...counter.Option) *counter.Service {
	cfg := counter.Config{
		CacheTTL:      e.cfg.Counter.CacheTTL,
		RateWindow:    e.cfg.Counter.RateWindow,
		ReadSeed:      e.cfg.Counter.ReadSeed,
		IncrementSeed: e.cfg.Counter.IncrementSeed,
	}
	return counter.NewService(st.Counter, cfg, append(opts, counter.WithLogger(e.log))...)
}

func showCounter(c *cli.Context) error {
	return withStores(c, persistence.Options{}, func(e *env, st *persistence.Stores) error {
		snap, err := counterService(e, st).Read(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "totalJoined %d\n", snap.TotalJoined)
		return nil
	})
}

func bumpCounter(c *cli.Context) error {
	return withStores(c, persistence.Options{}, func(e *env, st *persistence.Stores) error {
		lo, hi := e.cfg.Counter.BumpMin, e.cfg.Counter.BumpMax
		if c.IsSet("min") {
			lo = c.Int64("min")
		}
		if c.IsSet("max") {
			hi = c.Int64("max")
		}

		var opts []counter.Option
		if e.cfg.Redis.Enabled {
			// Running servers drop their cached total when the event arrives.
			cache, err := redis.NewCacheFromURL(c.Context, e.cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer cache.Close()

			bus, err := messaging.NewRedisEventBus(c.Context, messaging.RedisEventBusConfig{
				Client:      cache.Client(),
				ChannelName: e.cfg.Redis.EventsChannel,
				Logger:      e.log,
			})
			if err != nil {
				return err
			}
			defer bus.Close()
			opts = append(opts, counter.WithPublisher(bus))
		}

		res, err := counterService(e, st, opts...).Bump(c.Context, lo, hi)
		if err != nil {
			return err
		}
		okText.Fprintf(e.out, "Counter incremented by %d", res.Increment)
		fmt.Fprintf(e.out, ", totalJoined %d\n", res.TotalJoined)
		return nil
	})
}
