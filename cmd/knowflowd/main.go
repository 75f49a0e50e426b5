// Package main implements the entry point for the knowflow daemon,
// which keeps directions, skill points, and review cards in Postgres
// and delivers the daily plan and review reminders on a schedule.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cklxx/knowflow/internal/config"
	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/domain/srs"
	"github.com/cklxx/knowflow/internal/domain/stage"
	"github.com/cklxx/knowflow/internal/events"
	"github.com/cklxx/knowflow/internal/importer"
	"github.com/cklxx/knowflow/internal/ingest"
	"github.com/cklxx/knowflow/internal/notify"
	"github.com/cklxx/knowflow/internal/onboarding"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/platform/postgres"
	"github.com/cklxx/knowflow/internal/redact"
	"github.com/cklxx/knowflow/internal/scheduler"
	"github.com/cklxx/knowflow/internal/skill"
	"github.com/cklxx/knowflow/internal/store"
	"github.com/cklxx/knowflow/internal/synthesis"
)

// dbPingTimeout bounds the startup connectivity check.
const dbPingTimeout = 5 * time.Second

// planTickTime is when the daily plan job fires, shortly after the day
// rolls over so the due set reflects the new date.
const planTickTime = "00:05"

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		app.logger.Error("daemon exited with error", slog.String("error", err.Error()))
		app.cleanup()
		os.Exit(1)
	}

	app.cleanup()
}

// application holds the daemon's wired components.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	scheduler   scheduler.Scheduler
	planner     notify.Planner
	preferences *notify.PreferencesService
	delivery    notify.Delivery

	directions  store.DirectionStore
	points      store.SkillPointStore
	tracker     skill.Tracker
	ingester    ingest.Ingester
	synthesizer synthesis.Synthesizer
	persister   *importer.StoreCardPersister
	emitter     *events.InMemoryEventEmitter
}

// initializeApp loads configuration, sets up logging, connects to the
// database, runs migrations, and wires the service graph.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("database_url", redact.String(cfg.Database.URL)))

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.MigrateUp(ctx, db, appLogger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := buildApplication(cfg, appLogger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

// openDatabase connects via the pgx stdlib driver and verifies the
// connection before anything else depends on it.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// buildApplication wires stores and services from the loaded config.
func buildApplication(cfg *config.Config, appLogger *slog.Logger, db *sql.DB) (*application, error) {
	cardStore := postgres.NewPostgresCardStore(db, appLogger)
	pointStore := postgres.NewPostgresSkillPointStore(db, appLogger)
	directionStore := postgres.NewPostgresDirectionStore(db, appLogger)
	vaultStore := postgres.NewPostgresVaultSummaryStore(db, appLogger)
	prefStore := postgres.NewPostgresPreferencesStore(db, appLogger)

	srsService := srs.NewServiceWithParams(reviewParams(cfg.Review))

	reviewScheduler, err := scheduler.NewScheduler(
		cardStore,
		pointStore,
		vaultStore,
		srsService,
		scheduler.Config{SkillStalenessDays: cfg.Review.SkillStalenessDays},
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	skillTracker, err := skill.NewTracker(
		db,
		pointStore,
		directionStore,
		skillParams(cfg.Skill),
		stageParams(cfg.Stage),
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create skill tracker: %w", err)
	}

	defaults, err := reminderDefaults(cfg.Reminder)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		scheduler:   reviewScheduler,
		planner:     notify.NewPlanner(),
		preferences: notify.NewPreferencesService(prefStore, defaults, appLogger),
		delivery:    notify.NewLogDelivery(appLogger),
		directions:  directionStore,
		points:      pointStore,
		tracker:     skillTracker,
		ingester:    ingest.NewIngester(ingestParams(cfg.Synthesis)),
		synthesizer: synthesis.NewSynthesizer(synthesisParams(cfg.Synthesis)),
		persister:   importer.NewStoreCardPersister(db, cardStore),
		emitter:     events.NewInMemoryEventEmitter(appLogger),
	}

	// Committed cards change the due set for the day; re-plan as soon
	// as a commit lands instead of waiting for the next tick.
	app.emitter.RegisterHandler(&replanHandler{
		logger: appLogger.With(slog.String("component", "replan_handler")),
		replan: app.deliverToday,
	})

	return app, nil
}

// reviewParams maps the review config group onto the interval rule.
func reviewParams(cfg config.ReviewConfig) *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		MinIntervalDays:         cfg.MinIntervalDays,
		HardIntervalFactor:      cfg.HardIntervalFactor,
		GoodIntervalFactor:      cfg.GoodIntervalFactor,
		EasyIntervalFactor:      cfg.EasyIntervalFactor,
		FirstReviewHardInterval: cfg.FirstReviewHardInterval,
		FirstReviewGoodInterval: cfg.FirstReviewGoodInterval,
		FirstReviewEasyInterval: cfg.FirstReviewEasyInterval,
	})
}

// skillParams maps the skill config group onto the advancement rule.
func skillParams(cfg config.SkillConfig) *skill.Params {
	return skill.NewParams(skill.ParamsConfig{
		GoodThresholdFromUnknown:  cfg.GoodThresholdFromUnknown,
		GoodThresholdFromEmerging: cfg.GoodThresholdFromEmerging,
		GoodThresholdFromWorking:  cfg.GoodThresholdFromWorking,
	})
}

// stageParams maps the stage config group onto stage derivation.
func stageParams(cfg config.StageConfig) *stage.Params {
	return stage.NewParams(stage.ParamsConfig{
		ShapeThreshold:    cfg.ShapeThreshold,
		AttackFraction:    cfg.AttackFraction,
		StabilizeFraction: cfg.StabilizeFraction,
	})
}

// ingestParams maps the synthesis config group onto the fragmenter.
func ingestParams(cfg config.SynthesisConfig) *ingest.Params {
	return ingest.NewParams(ingest.ParamsConfig{
		MinFragmentRunes: cfg.MinFragmentRunes,
		MaxFragments:     cfg.MaxFragments,
	})
}

// synthesisParams maps the synthesis config group onto clustering and
// confidence scoring.
func synthesisParams(cfg config.SynthesisConfig) *synthesis.Params {
	return synthesis.NewParams(synthesis.ParamsConfig{
		SimilarityThreshold:     cfg.SimilarityThreshold,
		FragmentSaturationCount: cfg.FragmentSaturationCount,
		TargetBodyMinRunes:      cfg.TargetBodyMinRunes,
		TargetBodyMaxRunes:      cfg.TargetBodyMaxRunes,
		MaxNewTags:              cfg.MaxNewTags,
	})
}

// newImportSession creates an import session wired to the daemon's
// emitter, so its commit event reaches the re-planning handler.
func (app *application) newImportSession() (*importer.Session, error) {
	return importer.NewSession(app.ingester, app.synthesizer, app.persister, app.emitter, app.logger)
}

// newOnboardingWizard creates a first-run wizard over the daemon's
// stores and services.
func (app *application) newOnboardingWizard() (*onboarding.Wizard, error) {
	session, err := app.newImportSession()
	if err != nil {
		return nil, err
	}
	return onboarding.NewWizard(
		app.db,
		app.directions,
		app.points,
		app.tracker,
		session,
		app.scheduler,
		app.logger,
	)
}

// replanHandler reacts to committed cards by recomputing and delivering
// the today plan.
type replanHandler struct {
	logger *slog.Logger
	replan func()
}

// Ensure replanHandler implements events.EventHandler interface
var _ events.EventHandler = (*replanHandler)(nil)

// HandleEvent implements events.EventHandler.HandleEvent
func (h *replanHandler) HandleEvent(_ context.Context, event *events.Event) error {
	if event.Type != events.EventTypeCardsCommitted {
		return nil
	}

	var payload events.CardsCommittedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode cards_committed payload: %w", err)
	}

	h.logger.Info("cards committed, replanning",
		slog.String("direction_id", payload.DirectionID.String()),
		slog.Int("card_count", len(payload.CardIDs)))
	h.replan()
	return nil
}

// reminderDefaults turns the configured reminder strings into the
// preferences used until the user saves their own.
func reminderDefaults(cfg config.ReminderConfig) (domain.ReminderPreferences, error) {
	dailyTime, err := domain.ParseTimeOfDay(cfg.DailyTime)
	if err != nil {
		return domain.ReminderPreferences{}, fmt.Errorf("invalid reminder daily time: %w", err)
	}
	dueTime, err := domain.ParseTimeOfDay(cfg.DueTime)
	if err != nil {
		return domain.ReminderPreferences{}, fmt.Errorf("invalid reminder due time: %w", err)
	}

	defaults := domain.DefaultReminderPreferences()
	defaults.DailyTime = dailyTime
	defaults.DueTime = dueTime
	defaults.RemindLeadMinutes = cfg.RemindLeadMinutes
	return defaults, nil
}

// run starts the cron loop and blocks until a shutdown signal arrives.
func (app *application) run() error {
	cron := gocron.NewScheduler(time.UTC)

	if _, err := cron.Every(1).Day().At(planTickTime).Do(app.deliverToday); err != nil {
		return fmt.Errorf("failed to schedule daily plan job: %w", err)
	}

	cron.StartAsync()
	app.logger.Info("daemon started", slog.String("plan_tick", planTickTime))

	// The day is already underway when the daemon starts; compute the
	// plan once immediately instead of waiting for the next tick.
	app.deliverToday()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh

	app.logger.Info("shutting down", slog.String("signal", sig.String()))
	cron.Stop()
	return nil
}

// deliverToday computes the day's plan and hands the planned
// notifications to the delivery collaborator.
func (app *application) deliverToday() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prefs, err := app.preferences.Load(ctx)
	if err != nil {
		app.logger.Error("failed to load reminder preferences", slog.String("error", err.Error()))
		return
	}

	plan, err := app.scheduler.TodayPlan(ctx, time.Now().UTC())
	if err != nil {
		app.logger.Error("failed to compute today plan", slog.String("error", err.Error()))
		return
	}

	app.logger.Info("today plan computed",
		slog.Int("due_cards", len(plan.DueCards)),
		slog.Int("stale_skill_points", len(plan.StaleSkillPoints)),
		slog.Int("directions", len(plan.Counts)))

	for _, notification := range app.planner.Plan(*prefs, plan) {
		if err := app.delivery.Schedule(ctx, notification); err != nil {
			app.logger.Error("failed to schedule notification",
				slog.String("scope", string(notification.Scope)),
				slog.String("error", err.Error()))
		}
	}
}

// cleanup releases the daemon's resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
