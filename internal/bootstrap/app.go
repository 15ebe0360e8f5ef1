package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/artifacts"
	"picture-analysis/internal/distort"
	"picture-analysis/internal/distortions"
	"picture-analysis/internal/edges"
	"picture-analysis/internal/groups"
	"picture-analysis/internal/imaging"
	"picture-analysis/internal/inbox"
	"picture-analysis/internal/naming"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/queue"
	"picture-analysis/internal/scaling"
	"picture-analysis/internal/seed"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/server"
	"picture-analysis/internal/shared/storage/db"
	"picture-analysis/internal/shared/storage/object"
	localstore "picture-analysis/internal/shared/storage/object/local"
	s3store "picture-analysis/internal/shared/storage/object/s3"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/tasks"
	"picture-analysis/internal/uploads"
	"picture-analysis/internal/workerproc"
)

const defaultRegion = "us-east-1"

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Store       object.Store
	Queue       queue.Client
	MemoryQueue *queue.MemoryQueue

	Pictures    pictures.Repo
	Groups      groups.Repo
	Distortions distortions.Repo

	GroupWriter      groups.Writer
	DistortionWriter distortions.Writer

	Orchestrator    *tasks.Orchestrator
	Processor       *workerproc.Processor
	TaskService     *tasks.Service
	PictureService  *pictures.Service
	PicturesHandler *pictures.Handler
	TasksHandler    *tasks.Handler
	UploadsHandler  *uploads.Handler
	Inbox           *inbox.Watcher
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.AWSRegion) == "" {
		cfg.AWSRegion = defaultRegion
	}
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if err := buildQueue(ctx, app); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		DB:       app.DB,
		Handlers: []server.RouteRegistrar{app.PicturesHandler, app.TasksHandler, app.UploadsHandler},
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	role := db.RuntimeRole()
	open := db.Open
	if role == db.RoleLambda {
		open = db.Shared
	}
	sqlDB, err := open(ctx, cfg.DatabaseURL, db.PoolFor(role))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// buildStore returns nil when archiving is disabled.
func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

// buildQueue uses SQS when a queue URL is configured and an in-process queue otherwise.
func buildQueue(ctx context.Context, app *App) error {
	if app.Config.SQSQueueURL == "" {
		mq := queue.NewMemoryQueue()
		app.Queue = mq
		app.MemoryQueue = mq
		return nil
	}
	client, err := queue.NewSQSClient(ctx, app.Config.AWSRegion, app.Config.SQSQueueURL)
	if err != nil {
		return err
	}
	app.Queue = client
	return nil
}

func buildServices(app *App) error {
	var (
		groupWriter groups.Writer
		pairWriter  distortions.Writer
	)
	if app.DB != nil {
		pg, pgPairs := &groups.PGRepo{DB: app.DB}, &distortions.PGRepo{DB: app.DB}
		app.Pictures = &pictures.PGRepo{DB: app.DB}
		app.Groups, groupWriter = pg, pg
		app.Distortions, pairWriter = pgPairs, pgPairs
	} else {
		mem, memPairs := groups.NewMemoryRepo(), distortions.NewMemoryRepo()
		app.Pictures = pictures.NewMemoryRepo()
		app.Groups, groupWriter = mem, mem
		app.Distortions, pairWriter = memPairs, memPairs
	}
	app.GroupWriter = groupWriter
	app.DistortionWriter = pairWriter
	if app.Config.SeedFile != "" {
		f, err := seed.Load(app.Config.SeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(context.Background(), f, groupWriter, pairWriter); err != nil {
			return err
		}
	}

	names := naming.New(app.Config.PictureDir, app.Config.PictureExt)
	source, err := distort.NewSource(app.Config.ControlPointSource, app.Config.FixedControlPoints, app.Distortions)
	if err != nil {
		return err
	}

	orch := tasks.New(
		app.Pictures,
		app.Groups,
		edges.NewEngine(names),
		scaling.NewPipeline(scaling.Size{Width: app.Config.StillWidth, Height: app.Config.StillHeight}, names),
		distort.NewEngine(source, distort.NewMagickWarper(app.Config.WarpCommand, app.Config.WarpTimeout), names),
	)
	if app.Store != nil {
		orch.Archiver = artifacts.NewArchiver(app.Store)
	}

	app.Orchestrator = orch
	app.Processor = &workerproc.Processor{Dispatcher: orch, Queue: app.Queue}
	app.TaskService = tasks.NewService(app.Queue)
	app.PictureService = pictures.NewService(app.Pictures, imaging.Meter{})
	app.PicturesHandler = pictures.NewHandler(app.PictureService)
	app.TasksHandler = tasks.NewHandler(app.TaskService)
	app.UploadsHandler = uploads.NewHandler(app.PictureService, app.Config.PictureDir)
	if app.Config.UploadMaxBytes > 0 {
		app.UploadsHandler.MaxBytes = app.Config.UploadMaxBytes
	}
	if app.Config.InboxDir != "" {
		if _, err := inbox.ChainFor(app.Config.InboxSteps, "check", ""); err != nil {
			return fmt.Errorf("PA_INBOX_STEPS: %w", err)
		}
		app.Inbox = &inbox.Watcher{
			Dir:      app.Config.InboxDir,
			GroupID:  app.Config.InboxGroup,
			Steps:    app.Config.InboxSteps,
			Pictures: app.PictureService,
			Tasks:    app.TaskService,
		}
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
