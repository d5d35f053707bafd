// Todo API - a task-tracking REST backend built as a mono modular monolith.
//
// Modules:
//   - todo: store lifecycle (PostgreSQL or SQLite), validation, request-reply services, events
//   - activity: in-memory feed of recent todo changes, fed by todo events
//   - rate-limiter: optional Redis sliding-window limiter for /api routes
//   - api: Fiber HTTP server
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/api"
	"github.com/example/todo-app/modules/ratelimit"
	"github.com/example/todo-app/modules/todo"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log.Println("=== Todo API ===")
	log.Printf("Configuration:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  HTTP Address: %s", cfg.HTTP.Address())
	log.Printf("  Database Driver: %s", cfg.Database.Driver)
	if cfg.RateLimit.Enabled() {
		log.Printf("  Rate Limit: %d requests per %s (Redis %s)", cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.RedisAddr)
	} else {
		log.Printf("  Rate Limit: disabled")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel(cfg.LogLevel)),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	activityModule := activity.NewModule(activity.DefaultCapacity, logger.WithModule("activity"))
	todoModule := todo.NewModule(cfg.Database, logger.WithModule("todo"))
	rateLimitModule := ratelimit.NewModule(cfg.RateLimit, logger.WithModule("rate-limiter"))
	apiModule := api.NewModule(cfg.HTTP, cfg.Env, todoModule, rateLimitModule.Middleware(), logger.WithModule("api"),
		api.WithHiddenErrorDetails(cfg.IsProduction()),
	)

	// Consumers before emitters, the api last since it depends on both.
	for _, m := range []mono.Module{activityModule, todoModule, rateLimitModule, apiModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register module %s: %v", m.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// logLevel maps LOG_LEVEL onto mono's levels. Config validation has
// already rejected anything else.
func logLevel(s string) mono.LogLevel {
	switch strings.ToLower(s) {
	case config.LogLevelDebug:
		return mono.LogLevelDebug
	case config.LogLevelWarn:
		return mono.LogLevelWarn
	case config.LogLevelError:
		return mono.LogLevelError
	default:
		return mono.LogLevelInfo
	}
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://%s):", cfg.HTTP.Address())
	log.Println("  GET    /health            - Liveness and database probe")
	log.Println("  GET    /api               - API info")
	log.Println("  GET    /api/todos         - List todos (?completed=&limit=&offset=)")
	log.Println("  POST   /api/todos         - Create a todo")
	log.Println("  GET    /api/todos/stats   - Total, completed, pending and today counts")
	log.Println("  GET    /api/todos/:id     - Get a todo")
	log.Println("  PUT    /api/todos/:id     - Update a todo")
	log.Println("  DELETE /api/todos/:id     - Delete a todo")
	log.Println("  GET    /api/activity      - Recent changes")
	log.Println("")
	log.Println("Services (embedded NATS):")
	log.Println("  services.todo.{list,get,create,update,delete,stats}")
	log.Println("  services.activity.recent")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
