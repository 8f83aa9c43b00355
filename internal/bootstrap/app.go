package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"quali-backend/internal/cvminute"
	"quali-backend/internal/interview"
	"quali-backend/internal/llm"
	openai "quali-backend/internal/llm/openai"
	"quali-backend/internal/realtime"
	"quali-backend/internal/shared/config"
	"quali-backend/internal/shared/server"
	"quali-backend/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Hub              *realtime.Hub
	CvMinuteRepo     cvminute.Repo
	InterviewRepo    interview.Repo
	LLM              llm.Client
	Transcriber      llm.Transcriber
	InterviewService *interview.Service
	InterviewHandler *interview.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, transcriber, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Hub:         realtime.NewHub(originChecker(cfg.WSAllowedOrigins)),
		LLM:         client,
		Transcriber: transcriber,
	}

	if sqlDB != nil {
		app.CvMinuteRepo = &cvminute.PGRepo{DB: sqlDB}
		app.InterviewRepo = &interview.PGRepo{DB: sqlDB}
	} else {
		app.CvMinuteRepo = cvminute.NewMemoryRepo()
		app.InterviewRepo = interview.NewMemoryRepo()
	}

	app.InterviewService = &interview.Service{
		Repo:        app.InterviewRepo,
		CvMinutes:   app.CvMinuteRepo,
		LLM:         app.LLM,
		Transcriber: app.Transcriber,
		Push:        app.Hub,
	}
	app.InterviewHandler = interview.NewHandler(app.InterviewService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		InterviewHandler: app.InterviewHandler,
		Hub:              app.Hub,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config) (llm.Client, llm.Transcriber, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "openai":
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: OpenAI not configured; using placeholder responses: %v", err)
				placeholder := llm.PlaceholderClient{}
				return placeholder, placeholder, nil
			}
			return nil, nil, err
		}
		return client, client, nil
	case "placeholder":
		placeholder := llm.PlaceholderClient{}
		return placeholder, placeholder, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "":
		return true
	default:
		return false
	}
}
