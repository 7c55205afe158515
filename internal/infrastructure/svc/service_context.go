package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"feedrelay/internal/application/port"
	"feedrelay/internal/application/usecase/aggregate"
	"feedrelay/internal/application/usecase/broadcast"
	"feedrelay/internal/application/usecase/relay"
	"feedrelay/internal/application/usecase/scheduler"
	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/chain"
	"feedrelay/internal/infrastructure/config"
	"feedrelay/internal/infrastructure/metrics"
	"feedrelay/internal/infrastructure/sourcefeed"
	"feedrelay/internal/infrastructure/storage/composite"
	kafkapub "feedrelay/internal/infrastructure/storage/kafka"
	pgrepo "feedrelay/internal/infrastructure/storage/postgres"
	redisrepo "feedrelay/internal/infrastructure/storage/redis"
	sqliterepo "feedrelay/internal/infrastructure/storage/sqlite"
	"feedrelay/internal/infrastructure/websocket"
	"feedrelay/internal/interfaces/rest"

	// provider adapters register themselves with sourcefeed
	_ "feedrelay/internal/infrastructure/source/dia"
	_ "feedrelay/internal/infrastructure/source/exchange"
	_ "feedrelay/internal/infrastructure/source/metals"
	_ "feedrelay/internal/infrastructure/source/pyth"
	_ "feedrelay/internal/infrastructure/source/redstone"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	Registry *domain.Registry
	Metrics  *metrics.Collectors

	// storage
	repos      []port.QuoteRepository
	publishers []port.ViewPublisher

	// application components
	Aggregator *aggregate.Service
	Writer     *relay.Writer // nil when the relay is disabled
	Hub        *broadcast.Hub
	Push       *websocket.Manager
	Scheduler  *scheduler.Scheduler
	Server     *rest.Server

	closerChain []func() error
}

// New builds every component in dependency order. On error, whatever was opened is closed.
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Metrics:     metrics.New(),
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContext) initializeComponents() error {
	reg, err := sc.Config.Registry()
	if err != nil {
		return fmt.Errorf("instrument registry: %w", err)
	}
	sc.Registry = reg

	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}

	adapters := sourcefeed.Build(sc.sourceSettings())
	if len(adapters) == 0 {
		return ErrNoSourcesEnabled
	}

	sc.Aggregator = aggregate.NewService(aggregate.ServiceDeps{
		Registry: reg,
		Adapters: adapters,
		Config: aggregate.Config{
			TTL:              sc.Config.Cache.TTL.Duration,
			DisplayStaleness: sc.Config.Cache.DisplayStaleness.Duration,
			AdapterTimeout:   sc.Config.Cache.AdapterTimeout.Duration,
		},
		Metrics: sc.Metrics,
	})

	sc.initRelay()

	sc.Hub = broadcast.NewHub(broadcast.HubDeps{
		Viewer:   sc.Aggregator,
		Registry: reg,
		Metrics:  sc.Metrics,
	})
	sc.Push = websocket.NewManager(sc.Hub)

	deps := scheduler.SchedulerDeps{
		Aggregator:        sc.Aggregator,
		Broadcaster:       sc.Hub,
		Metrics:           sc.Metrics,
		RelayInterval:     sc.Config.Relay.Interval.Duration,
		BroadcastInterval: sc.Config.Broadcast.Interval.Duration,
	}
	// a typed nil would defeat the scheduler's nil checks
	if sc.Writer != nil {
		deps.Relayer = sc.Writer
	}
	if len(sc.repos) > 0 {
		deps.Repo = composite.New(sc.repos...)
	}
	if len(sc.publishers) > 0 {
		deps.Publisher = composite.NewPublisher(sc.publishers...)
	}
	sc.Scheduler = scheduler.New(deps)

	sc.Server = rest.NewServer(rest.ServerDeps{
		Addr:         sc.Config.App.HTTPAddr,
		Aggregator:   sc.Aggregator,
		RelayEnabled: sc.Writer != nil,
		Metrics:      sc.Metrics.Handler(),
		Push:         sc.Push,
		Subscribers:  sc.Hub.Count,
	})
	sc.closerChain = append(sc.closerChain, func() error {
		sc.Push.Shutdown()
		return nil
	})

	log.Info().
		Int("instruments", reg.Len()).
		Int("sources", len(adapters)).
		Int("repositories", len(sc.repos)).
		Int("publishers", len(sc.publishers)).
		Bool("relay", sc.Writer != nil).
		Msg("✓ All components initialized")
	return nil
}

func (sc *ServiceContext) sourceSettings() map[domain.Source]sourcefeed.Settings {
	out := make(map[domain.Source]sourcefeed.Settings)
	for _, src := range sc.Config.EnabledSources() {
		c := sc.Config.Sources[string(src)]
		out[src] = sourcefeed.Settings{
			BaseURL:     c.BaseURL,
			APIKey:      c.APIKey,
			RatePerSec:  c.RatePerSec,
			Burst:       c.Burst,
			Concurrency: c.Concurrency,
		}
	}
	return out
}

// initRelay builds the on-chain writer, or leaves it nil and runs read-only.
func (sc *ServiceContext) initRelay() {
	if ready, reason := sc.Config.RelayReady(); !ready {
		log.Warn().Err(relay.ErrRelayDisabled).Str("reason", reason).Msg("running read-only")
		return
	}

	ctx, cancel := context.WithTimeout(sc.Ctx, sc.Config.Relay.RPCTimeout.Duration)
	defer cancel()
	client, err := chain.Dial(ctx, sc.Config.Relay.RPCURL, sc.Config.Relay.PrivateKey, sc.Config.Relay.ChainID)
	if err != nil {
		log.Error().Err(err).Msg("chain client unavailable, running read-only")
		return
	}
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing chain client")
		return client.Close()
	})

	adapters := sc.Config.RelayAdapters()
	if len(adapters) == 0 {
		log.Warn().Msg("no relay.adapters configured, every quote will be skipped as unmapped")
	}

	var repo port.QuoteRepository
	if len(sc.repos) > 0 {
		repo = composite.New(sc.repos...)
	}
	sc.Writer = relay.NewWriter(relay.WriterDeps{
		Client: client,
		Repo:   repo,
		Config: relay.Config{
			Staleness:      sc.Config.Relay.Staleness.Duration,
			RPCTimeout:     sc.Config.Relay.RPCTimeout.Duration,
			ConfirmTimeout: sc.Config.Relay.ConfirmTimeout.Duration,
			Adapters:       adapters,
		},
		Metrics: sc.Metrics,
	})
	log.Info().Int("adapters", len(adapters)).Msg("✓ Relay writer initialized")
}

func (sc *ServiceContext) initializeStorage() error {
	if sc.Config.SQLite.Enabled {
		if err := sc.initSQLite(); err != nil {
			return fmt.Errorf("sqlite initialization failed: %w", err)
		}
	}
	if sc.Config.Postgres.Enabled {
		if err := sc.initPostgres(); err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
	}
	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}
	if sc.Config.Kafka.Enabled {
		sc.initKafka()
	}
	return nil
}

func (sc *ServiceContext) initSQLite() error {
	repo, err := sqliterepo.New(sc.Config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("sqlite repo creation failed: %w", err)
	}
	sc.repos = append(sc.repos, repo)

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", sc.Config.SQLite.Path).
		Msg("✓ SQLite initialized")
	return nil
}

func (sc *ServiceContext) initPostgres() error {
	repo, err := pgrepo.New(sc.Config.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("postgres repo creation failed: %w", err)
	}
	sc.repos = append(sc.repos, repo)

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("✓ Postgres initialized")
	return nil
}

func (sc *ServiceContext) initRedis() error {
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     sc.Config.Redis.Addr,
		Password: sc.Config.Redis.Password,
		DB:       sc.Config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.publishers = append(sc.publishers, redisrepo.New(
		rdb,
		sc.Config.Redis.Prefix,
		sc.Config.Redis.TTL.Duration,
		sc.Config.Redis.Channel,
	))

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", sc.Config.Redis.Addr).
		Int("db", sc.Config.Redis.DB).
		Msg("✓ Redis initialized")
	return nil
}

func (sc *ServiceContext) initKafka() {
	pub := kafkapub.New(sc.Config.Kafka.Brokers, sc.Config.Kafka.Topic)
	sc.publishers = append(sc.publishers, pub)

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing kafka writer")
		return pub.Close()
	})

	log.Info().
		Strs("brokers", sc.Config.Kafka.Brokers).
		Str("topic", sc.Config.Kafka.Topic).
		Msg("✓ Kafka publisher initialized")
}

// Close releases resources in reverse order of acquisition.
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
