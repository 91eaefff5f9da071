package main

import (
	"flag"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wtfBlog/cache"
	"wtfBlog/crud"
	"wtfBlog/http"
	"wtfBlog/metrics"
	"wtfBlog/views"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	// Load configuration from a .config.json file if present, otherwise use the default dev setup.
	// If *productionBool evaluates to true, that means we're in production. In that case the
	// .config.json file is required and the app will panic if no file is found.
	config := LoadConfig(*productionBool)

	// Set up structured logging.
	logger := newLogger(config.IsProd())
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Open a database connection and execute migrations.
	dbConfig := config.Database
	db := NewDB(dbConfig.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.Pepper, config.HMACKey),
		crud.WithPost(crud.PostsPerPage),
		crud.WithGroup(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithImage(),
	)
	must(err)

	// The rendered index page is cached in redis when an address is
	// configured, in process memory otherwise.
	pageCache := newPageCache(config.Redis, logger)

	// Set up the html renderer.
	renderer, err := views.NewHTML(logger)
	must(err)

	// Register app metrics with a fresh registry.
	collector := metrics.NewCollector(nil)

	// Set up a webserver.
	server := http.NewServer(
		config.IsProd(),
		config.CSRFKey,
		time.Duration(config.CacheTTLSeconds)*time.Second,
		services,
		renderer,
		pageCache,
		collector,
		logger,
	)

	// Serve the app.
	server.Run(config.Port)
}

// newLogger builds the zap logger matching the environment.
func newLogger(isProd bool) *zap.Logger {
	if isProd {
		logger, err := zap.NewProduction()
		must(err)
		return logger
	}
	logger, err := zap.NewDevelopment()
	must(err)
	return logger
}

// newPageCache picks the page cache backend.
func newPageCache(cfg RedisConfig, logger *zap.Logger) cache.Cache {
	if cfg.Addr == "" {
		logger.Info("page cache: in-memory")
		return cache.NewMemory()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	logger.Info("page cache: redis", zap.String("addr", cfg.Addr))
	return cache.NewRedis(client, "pages")
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
