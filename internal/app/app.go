package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goaltracker/internal/config"
	"github.com/templui/goaltracker/internal/db"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/service"
	"github.com/templui/goaltracker/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	UserRepository   repository.UserRepository
	AuthService      *service.AuthService
	UserService      *service.UserService
	EmailService     *service.EmailService
	GoalService      *service.GoalService
	MilestoneService *service.MilestoneService
	ProgressService  *service.ProgressService
	AnalyticsService *service.AnalyticsService
	ExportService    *service.ExportService

	goalRepository      repository.GoalRepository
	milestoneRepository repository.MilestoneRepository
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a, err := newApp(ctx, cfg, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return a, nil
}

func newApp(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*App, error) {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)
	progressEntryRepository := repository.NewProgressEntryRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	transactor := repository.NewTransactor(database)

	// Storage
	exportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	locks := service.NewGoalLocks()
	goalService := service.NewGoalService(goalRepository, milestoneRepository, transactor, locks)
	milestoneService := service.NewMilestoneService(goalRepository, milestoneRepository, transactor, locks)
	progressService := service.NewProgressService(goalRepository, progressEntryRepository)
	analyticsService := service.NewAnalyticsService(goalRepository, milestoneRepository)
	exportService := service.NewExportService(goalService, progressEntryRepository, exportStorage)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenPasswordResetExpiry,
		cfg.TokenRetention,
	)
	userService := service.NewUserService(userRepository)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		UserRepository:      userRepository,
		AuthService:         authService,
		UserService:         userService,
		EmailService:        emailService,
		GoalService:         goalService,
		MilestoneService:    milestoneService,
		ProgressService:     progressService,
		AnalyticsService:    analyticsService,
		ExportService:       exportService,
		goalRepository:      goalRepository,
		milestoneRepository: milestoneRepository,
	}, nil
}

// NotificationService builds the reminder and digest sender. deduper may be
// nil when Redis is not configured.
func (a *App) NotificationService(deduper service.Deduper) *service.NotificationService {
	return service.NewNotificationService(
		a.UserRepository,
		a.goalRepository,
		a.milestoneRepository,
		a.EmailService,
		deduper,
		a.Cfg.ReminderWindowDays,
	)
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
