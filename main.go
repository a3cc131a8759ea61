package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	authx "github.com/agilbank/teller/agent/auth"
	enginex "github.com/agilbank/teller/agent/engine"
	handlersx "github.com/agilbank/teller/agent/handlers"
	llmx "github.com/agilbank/teller/agent/llm"
	promptx "github.com/agilbank/teller/agent/prompt"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/bank"
	fxx "github.com/agilbank/teller/fx"
	configx "github.com/agilbank/teller/pkg/config"
	logx "github.com/agilbank/teller/pkg/logger"
	_ "github.com/agilbank/teller/pkg/logger/autoload"
	"github.com/agilbank/teller/web"
)

type AppConfig struct {
	HTTPAddr        string        `split_words:"true" default:":8080"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`

	// SessionBackend is "memory" or "redis"; BankBackend is "memory" or "postgres".
	SessionBackend string `split_words:"true" default:"memory"`
	BankBackend    string `split_words:"true" default:"memory"`

	CustomersFile  string `split_words:"true" default:"data/clientes.csv"`
	ScoreBandsFile string `split_words:"true" default:"data/score_limite.csv"`
}

func main() {
	log := logx.With("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("TELLER")

	store := buildSessionStore(ctx, *appCfg, log)
	directory, ledger := buildBankStores(ctx, *appCfg, log)
	table := buildScoreLimitTable(*appCfg, log)
	locks := bank.NewCustomerLocks()

	authCfg := configx.MustNew[authx.Config]("AUTH")
	machine := authx.MustNewMachine(directory, *authCfg)

	sourceCfg := configx.MustNew[fxx.SourceConfig]("FX")
	cacheCfg := configx.MustNew[fxx.CacheConfig]("FX_CACHE")
	rates := fxx.MustNewCache(fxx.MustNewSource(*sourceCfg), *cacheCfg)

	credit, err := handlersx.NewCreditHandler(directory, table, ledger, locks)
	if err != nil {
		log.Fatal().Err(err).Msg("build credit handler")
	}
	weights := configx.MustNew[bank.ScoreWeights]("SCORE")
	interview, err := handlersx.NewInterviewHandler(directory, table, *weights, locks)
	if err != nil {
		log.Fatal().Err(err).Msg("build interview handler")
	}
	exchange, err := handlersx.NewExchangeHandler(rates)
	if err != nil {
		log.Fatal().Err(err).Msg("build exchange handler")
	}
	registry, err := handlersx.NewRegistry(credit, interview, exchange)
	if err != nil {
		log.Fatal().Err(err).Msg("build handler registry")
	}

	var opts []enginex.Option
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if llmCfg.Enabled() {
		interp := llmx.MustNewInterpreter(*llmCfg, promptx.LoadPromptSet())
		opts = append(opts, enginex.WithInterpreter(interp))
		log.Info().Str("model", llmCfg.Model).Msg("language backend enabled")
	} else {
		log.Info().Msg("no language backend configured; replies stay deterministic")
	}

	eng, err := enginex.New(store, machine, registry, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}

	e := web.NewRouter(eng)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(appCfg.HTTPAddr)
	}()
	log.Info().Str("addr", appCfg.HTTPAddr).Msg("teller listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown http server")
		}
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve http")
		}
	}
}

func buildSessionStore(ctx context.Context, cfg AppConfig, log zerolog.Logger) statex.Store {
	switch cfg.SessionBackend {
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		store, err := statex.NewRedisStore(ctx, *redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis session store")
		}
		log.Info().Str("addr", redisCfg.Addr).Msg("sessions stored in redis")
		return store
	default:
		log.Info().Msg("sessions stored in memory")
		return statex.NewMemoryStore()
	}
}

func buildBankStores(ctx context.Context, cfg AppConfig, log zerolog.Logger) (bank.Directory, bank.Ledger) {
	switch cfg.BankBackend {
	case "postgres":
		pgCfg := configx.MustNew[bank.PostgresConfig]("POSTGRES")
		db, err := bank.Connect(ctx, *pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		if err := bank.CreateSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("create postgres schema")
		}
		directory := bank.NewPostgresDirectory(db)
		seedPostgresCustomers(ctx, cfg, directory, log)
		log.Info().Msg("bank records stored in postgres")
		return directory, bank.NewPostgresLedger(db)
	default:
		records, err := bank.LoadCustomersFile(cfg.CustomersFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CustomersFile).Msg("load customer records")
		}
		log.Info().Int("customers", len(records)).Str("path", cfg.CustomersFile).Msg("bank records stored in memory")
		return bank.NewMemoryDirectory(records...), bank.NewMemoryLedger()
	}
}

// seedPostgresCustomers upserts the CSV records when the file is present. A
// missing file is fine for postgres, the database is assumed provisioned.
func seedPostgresCustomers(ctx context.Context, cfg AppConfig, directory *bank.PostgresDirectory, log zerolog.Logger) {
	records, err := bank.LoadCustomersFile(cfg.CustomersFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CustomersFile).Msg("no customer seed file; skipping seed")
		return
	}
	if err := directory.SeedCustomers(ctx, records); err != nil {
		log.Fatal().Err(err).Msg("seed postgres customers")
	}
	log.Info().Int("customers", len(records)).Msg("customer seed applied")
}

func buildScoreLimitTable(cfg AppConfig, log zerolog.Logger) *bank.ScoreLimitTable {
	bands, err := bank.LoadScoreBandsFile(cfg.ScoreBandsFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.ScoreBandsFile).Msg("no score bands file; using built-in table")
		return bank.DefaultScoreLimitTable()
	}
	table, err := bank.NewScoreLimitTable(bands)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ScoreBandsFile).Msg("invalid score bands file")
	}
	return table
}
