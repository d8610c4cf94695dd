package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/attachments"
	googleauth "incident-backend/internal/auth"
	"incident-backend/internal/export"
	"incident-backend/internal/ownership"
	"incident-backend/internal/queue"
	"incident-backend/internal/reports"
	"incident-backend/internal/services/health"
	"incident-backend/internal/shared/config"
	"incident-backend/internal/shared/server"
	"incident-backend/internal/shared/storage/db"
	"incident-backend/internal/shared/storage/object"
	localstore "incident-backend/internal/shared/storage/object/local"
	s3store "incident-backend/internal/shared/storage/object/s3"
	"incident-backend/internal/shared/telemetry"
	"incident-backend/internal/users"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	Queue              queue.Client
	MediaDir           string
	ReportsRepo        reports.Repo
	AttachmentsRepo    attachments.Repo
	UsersRepo          users.Repo
	Guard              *ownership.Guard
	ReportsService     *reports.Service
	AttachmentsService *attachments.Service
	UsersService       *users.Service
	Exporter           *export.Assembler
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, mediaDir, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		MediaDir: mediaDir,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            health.NewService(sqlDB),
		ReportHandler:     reports.NewHandler(app.ReportsService),
		AttachmentHandler: attachments.NewHandler(app.AttachmentsService, cfg.MaxUploadBytes),
		ExportHandler:     export.NewHandler(app.Exporter),
		UserHandler:       users.NewHandler(app.UsersService),
		GoogleAuth:        app.GoogleAuth,
		MediaDir:          mediaDir,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileServer)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{
				"reason": "database connect failed",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

// buildStore returns the blob store and, for the local store, the directory
// served under /media.
func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, string, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
			KMSKeyID:      cfg.SSEKMSKeyID,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store := localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL+"/media")
		return store, store.Dir(), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.BlobCleanupQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.BlobCleanupQueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var reportRepo reports.Repo
	var attachmentRepo attachments.Repo
	var userRepo users.Repo

	if app.DB != nil {
		reportRepo = &reports.PGRepo{DB: app.DB}
		attachmentRepo = &attachments.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		memReports := reports.NewMemoryRepo()
		memAttachments := attachments.NewMemoryRepo()
		memReports.Attachments = memAttachments
		memAttachments.Reports = memReports
		reportRepo = memReports
		attachmentRepo = memAttachments
		userRepo = users.NewMemoryRepo()
	}

	guard := ownership.NewGuard(reportRepo, attachmentRepo)
	attachmentSvc := attachments.NewService(attachmentRepo, app.Store, guard, app.Queue)
	reportSvc := reports.NewService(reportRepo, attachmentSvc, guard)
	userSvc := users.NewService(userRepo)

	app.ReportsRepo = reportRepo
	app.AttachmentsRepo = attachmentRepo
	app.UsersRepo = userRepo
	app.Guard = guard
	app.ReportsService = reportSvc
	app.AttachmentsService = attachmentSvc
	app.UsersService = userSvc
	app.Exporter = export.NewAssembler(guard, reportSvc, attachmentSvc, app.Store, app.Config.ExportFetchTimeout)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
}
