package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sbilibin2017/gw-fiat-ledger/internal/facades"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/handlers"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/jwt"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/middlewares"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/repositories"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/services"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/settlement"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/tracing"

	_ "github.com/jackc/pgx/v5/stdlib"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// Store drivers accepted by STORE_DRIVER.
const (
	storePostgres = "postgres"
	storeMongo    = "mongo"
	storeMemory   = "memory"
)

// config holds everything read from the environment.
type config struct {
	AppHost     string
	AppPort     string
	LogLevel    string
	LogEncoding string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisExpSecond    int

	KafkaBrokers []string
	KafkaTopic   string

	GWHost string
	GWPort string

	MongoURI string
	MongoDB  string

	StoreDriver string
	LockBackend string
	LockTTL     time.Duration

	DefaultCurrency    string
	AssetCode          string
	TransferFeePercent decimal.Decimal

	SettlementTimeout     time.Duration
	SettlementLatency     time.Duration
	DistributionPublicKey string
	DistributionSecret    string
	DistributionBalance   decimal.Decimal
	WalletStartingBalance decimal.Decimal

	JWTSecretKey string
	JWTExpSecond int

	OTELEndpoint string
	OTELInsecure bool
}

// @title gw-fiat-ledger API
// @version 1.0.0
// @description Custodial fiat ledger settling through a payment network
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application configuration. Missing variables fall back to defaults.
func parseConfig(path string) (*config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var (
		cfg config
		err error
	)
	atoi := func(key, defaultValue string) int {
		if err != nil {
			return 0
		}
		var v int
		if v, err = strconv.Atoi(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}
	duration := func(key, defaultValue string) time.Duration {
		if err != nil {
			return 0
		}
		var v time.Duration
		if v, err = time.ParseDuration(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}
	amount := func(key, defaultValue string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var v decimal.Decimal
		if v, err = decimal.NewFromString(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.LogEncoding = getEnv("APP_LOG_ENCODING", "json")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGPort = atoi("POSTGRES_PORT", "5432")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	cfg.PGMaxOpenConns = atoi("POSTGRES_MAX_OPEN_CONNS", "16")
	cfg.PGMaxIdleConns = atoi("POSTGRES_MAX_IDLE_CONNS", "8")

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = atoi("REDIS_PORT", "6379")
	cfg.RedisDB = atoi("REDIS_DB", "0")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisPoolSize = atoi("REDIS_POOL_SIZE", "10")
	cfg.RedisMinIdleConns = atoi("REDIS_MIN_IDLE_CONNS", "2")
	cfg.RedisExpSecond = atoi("REDIS_EXP_SECOND", "300")

	// Kafka config, publishing is off without brokers
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "ledger.transactions")

	// gRPC config
	cfg.GWHost = getEnv("GW_EXCHANGER_HOST", "localhost")
	cfg.GWPort = getEnv("GW_EXCHANGER_PORT", "50051")

	// MongoDB config
	cfg.MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDB = getEnv("MONGO_DB", "ledger")

	// Ledger config
	cfg.StoreDriver = getEnv("STORE_DRIVER", storePostgres)
	cfg.LockBackend = getEnv("LOCK_BACKEND", "memory")
	cfg.LockTTL = duration("LOCK_TTL", "10s")
	cfg.DefaultCurrency = strings.ToUpper(getEnv("LEDGER_DEFAULT_CURRENCY", "USD"))
	cfg.AssetCode = strings.ToUpper(getEnv("LEDGER_ASSET_CODE", "XLM"))
	cfg.TransferFeePercent = amount("LEDGER_TRANSFER_FEE_PERCENT", "1")

	// Settlement config
	cfg.SettlementTimeout = duration("SETTLEMENT_TIMEOUT", "30s")
	cfg.SettlementLatency = duration("SETTLEMENT_LATENCY", "0s")
	cfg.DistributionPublicKey = getEnv("SETTLEMENT_DISTRIBUTION_PUBLIC_KEY", "GDISTRIBUTION")
	cfg.DistributionSecret = getEnv("SETTLEMENT_DISTRIBUTION_SECRET", "SDISTRIBUTION")
	cfg.DistributionBalance = amount("SETTLEMENT_DISTRIBUTION_BALANCE", "100000000")
	cfg.WalletStartingBalance = amount("SETTLEMENT_WALLET_STARTING_BALANCE", "10000")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	cfg.JWTExpSecond = atoi("JWT_EXP_SECOND", "3600")

	// Tracing config
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.OTELInsecure = getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true"

	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case storePostgres, storeMongo, storeMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver)
	}
	switch cfg.LockBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("LOCK_BACKEND: unknown backend %q", cfg.LockBackend)
	}

	return &cfg, nil
}

// run initializes the logger, stores, Redis, Kafka, the gRPC rate feed and
// the HTTP server. It sets up routes, applies middleware, and handles
// graceful shutdown.
func run(ctx context.Context, cfg *config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	shutdownTracing, err := tracing.Init(ctx, "gw-fiat-ledger", cfg.OTELEndpoint, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Log.Errorw("tracing shutdown error", "error", err)
		}
	}()

	// Connect to PostgreSQL, the wallet directory always lives there
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := repositories.Migrate(ctx, db); err != nil {
		return fmt.Errorf("PostgreSQL migration failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}

	checks := map[string]func(ctx context.Context) error{
		"postgres": db.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	// Transaction store
	var (
		store  services.TransactionStore
		readTx func(http.Handler) http.Handler
	)
	switch cfg.StoreDriver {
	case storePostgres:
		store = repositories.NewTransactionRepository(db, middlewares.GetTxFromContext)
		readTx = middlewares.TxMiddleware(db)
	case storeMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("MongoDB connection error: %w", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Log.Errorw("MongoDB disconnect error", "error", err)
			}
		}()
		if err := client.Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB ping failed: %w", err)
		}
		mongoRepo := repositories.NewTransactionMongoRepository(client.Database(cfg.MongoDB).Collection("transactions"))
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("MongoDB indexes: %w", err)
		}
		store = mongoRepo
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	case storeMemory:
		logger.Log.Warn("Using in-memory transaction store, history is lost on restart")
		store = repositories.NewTransactionMemoryRepository()
	}

	var locker services.Locker
	if cfg.LockBackend == "redis" {
		locker = repositories.NewRedisLocker(rdb, cfg.LockTTL, 25*time.Millisecond)
	}

	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Log.Errorw("Kafka writer close error", "error", err)
			}
		}()
		kafkaWriter = w
	} else {
		logger.Log.Warn("KAFKA_BROKERS not set, ledger events are not published")
	}

	// Connect to gRPC service
	grpcAddr := fmt.Sprintf("%s:%s", cfg.GWHost, cfg.GWPort)
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to create gRPC client for %s: %w", grpcAddr, err)
	}
	defer conn.Close()
	rateFeed := facades.NewExchangeRatesGRPCFacade(pb.NewExchangeServiceClient(conn))

	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	rateCacheRepo := repositories.NewExchangeRateCacheRepository(rdb, time.Duration(cfg.RedisExpSecond)*time.Second)

	// Settlement network
	network := settlement.NewSimulated(cfg.AssetCode, cfg.SettlementLatency)
	if err := seedNetwork(ctx, network, walletRepo, cfg); err != nil {
		return err
	}

	// Services
	ledgerService := services.NewLedgerService(store, locker, kafkaWriter, cfg.DefaultCurrency)
	rateService := services.NewRateService(rateFeed, rateCacheRepo, cfg.AssetCode, services.DefaultFallbackRates)
	flowService := services.NewFlowService(ledgerService, walletRepo, network, rateService, services.FlowConfig{
		AssetCode:             cfg.AssetCode,
		DistributionPublicKey: cfg.DistributionPublicKey,
		DistributionSecret:    cfg.DistributionSecret,
		TransferFeePercent:    cfg.TransferFeePercent,
		SettlementTimeout:     cfg.SettlementTimeout,
	})

	tokens := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(time.Duration(cfg.JWTExpSecond)*time.Second),
	)

	r := newRouter(routerDeps{
		ledger:     ledgerService,
		flows:      flowService,
		rates:      rateService,
		tokens:     tokens,
		readTx:     readTx,
		checks:     checks,
		swaggerURL: fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

// walletLister is the part of the wallet directory used to seed the network.
type walletLister interface {
	ListWallets(ctx context.Context) ([]models.WalletDB, error)
}

// seedNetwork opens the custodial distribution account and one account per
// known wallet on the simulated network.
func seedNetwork(ctx context.Context, network *settlement.Simulated, wallets walletLister, cfg *config) error {
	if err := network.CreateAccount(cfg.DistributionPublicKey, cfg.DistributionSecret, cfg.DistributionBalance); err != nil {
		return fmt.Errorf("create distribution account: %w", err)
	}

	list, err := wallets.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	for _, w := range list {
		if err := network.CreateAccount(w.PublicKey, w.SecretSeed, cfg.WalletStartingBalance); err != nil {
			logger.Log.Warnw("skipping wallet", "user", w.UserEmail, "public_key", w.PublicKey, "error", err)
		}
	}
	logger.Log.Infow("settlement network seeded", "wallets", len(list))
	return nil
}

type routerDeps struct {
	ledger     *services.LedgerService
	flows      *services.FlowService
	rates      *services.RateService
	tokens     middlewares.Tokener
	readTx     func(http.Handler) http.Handler // nil unless reads can share a snapshot
	checks     map[string]func(ctx context.Context) error
	swaggerURL string
}

func newRouter(d routerDeps) http.Handler {
	user := middlewares.GetUserEmailFromContext

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Get("/healthz", handlers.NewHealthHandler(d.checks, 2*time.Second))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(d.swaggerURL)))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/rates/{from}/{to}", handlers.NewGetRateHandler(d.rates))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(d.tokens))

			r.Post("/wallet/deposit", handlers.NewDepositHandler(d.flows, user))
			r.Post("/wallet/withdraw", handlers.NewWithdrawHandler(d.flows, user))
			r.Post("/wallet/transfer", handlers.NewTransferHandler(d.flows, user))
			r.Post("/wallet/payment", handlers.NewPaymentHandler(d.flows, user))

			r.Group(func(r chi.Router) {
				if d.readTx != nil {
					r.Use(d.readTx)
				}
				r.Get("/balance", handlers.NewGetBalanceHandler(d.flows, user))
				r.Get("/transactions", handlers.NewListTransactionsHandler(d.ledger, user))
				r.Get("/transactions/stats", handlers.NewTransactionStatsHandler(d.ledger, user))
				r.Get("/transactions/{id}", handlers.NewGetTransactionHandler(d.ledger, user))
			})
		})
	})

	return r
}
