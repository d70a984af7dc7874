// Package main runs a scripted session of the achievement engine: three users
// join, a student solves two quizzes, unlocks are announced, the action
// history is undone once, and a report is exported and pushed to the ranking.
//
// Postgres and Redis are optional. Without them history stays in memory and
// the ranking is logged instead of stored.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/achievement-hub/config"
	"github.com/alem-hub/achievement-hub/internal/application/command"
	"github.com/alem-hub/achievement-hub/internal/application/query"
	"github.com/alem-hub/achievement-hub/internal/application/session"
	"github.com/alem-hub/achievement-hub/internal/domain/challenge"
	"github.com/alem-hub/achievement-hub/internal/domain/history"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/catalog"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/persistence/projections"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/report"
	"github.com/alem-hub/achievement-hub/internal/interface/console"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name), logger.String("env", string(cfg.App.Environment)))
	log.Info("starting demo", logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 2. EVENT BUS AND READ MODELS
	// ─────────────────────────────────────────────────────────────────────────
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(cfg)}))
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = slogger
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer bus.Close()

	dispatcherCfg := messaging.DefaultDispatcherConfig()
	dispatcherCfg.Logger = slogger
	dispatcher := messaging.NewDispatcher(bus, dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(slogger))
	dispatcher.Use(messaging.LoggingMiddleware(slogger))

	standings := projections.NewStandingsView()
	if err := standings.Attach(dispatcher); err != nil {
		return fmt.Errorf("failed to attach standings view: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. OPTIONAL BACKENDS
	// ─────────────────────────────────────────────────────────────────────────
	var recorder history.Recorder
	var historyRepo *postgres.HistoryRepository
	if cfg.Database.Enabled && cfg.Features.IsEnabled(config.FeatureHistoryPersistence) {
		conn, err := openHistoryStore(ctx, cfg.Database)
		if err != nil {
			log.Warn("history persistence disabled", logger.Err(err))
		} else {
			defer conn.Close()
			historyRepo = postgres.NewHistoryRepository(conn)
			recorder = historyRepo
		}
	}

	var store ranking.Store
	var rankingCache *redis.RankingCache
	if cfg.Redis.Enabled {
		cache, err := redis.NewCache(redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("redis ranking disabled", logger.Err(err))
		} else {
			defer cache.Close()
			rankingCache = redis.NewRankingCache(cache, cfg.Ranking.EntryTTL)
			store = rankingCache
		}
	}

	adapter := ranking.NewAdapter(store, ranking.AdapterConfig{
		Cohort:                  cfg.Ranking.Cohort,
		MaxRetries:              cfg.Ranking.MaxRetries,
		RequestTimeout:          cfg.Ranking.RequestTimeout,
		CircuitBreakerThreshold: cfg.Ranking.CircuitBreakerThreshold,
		CircuitBreakerTimeout:   cfg.Ranking.CircuitBreakerTimeout,
	}, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SESSION, OBSERVERS AND CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	sess := session.New(session.Options{Logger: log, Publisher: bus, Recorder: recorder})

	if cfg.Features.IsEnabled(config.FeatureConsoleNotifications) {
		sess.Hub().Subscribe(console.NewNotifier(out))
	}
	if cfg.Features.IsEnabled(config.FeatureEventPublishing) {
		sess.Hub().Subscribe(messaging.NewAchievementPublisher(bus))
	}
	if cfg.Features.IsEnabled(config.FeatureRankingSync) {
		sess.Hub().Subscribe(adapter.Observer())
	}

	cat, err := catalog.Load(cfg.Catalog.Path, catalog.Options{
		StrictGroups: cfg.Features.IsEnabled(config.FeatureCatalogStrict),
	})
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if _, err := cat.Register(sess.Registry()); err != nil {
		return fmt.Errorf("failed to register catalog: %w", err)
	}

	view := console.NewPresenter(out)
	view.Section("Achievement platform")
	view.Line("Catalog:")
	view.Catalog(sess.Registry().Summaries())

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SCRIPTED SESSION
	// ─────────────────────────────────────────────────────────────────────────
	student, err := sess.CreateUser(string(user.RoleStudent), "João")
	if err != nil {
		return err
	}
	teacher, err := sess.CreateUser(string(user.RoleTeacher), "Maria")
	if err != nil {
		return err
	}
	visitor, err := sess.CreateUser(string(user.RoleVisitor), "Pedro")
	if err != nil {
		return err
	}
	view.Line("Users: %s, %s, %s", student, teacher, visitor)

	award := command.NewAwardPointsHandler(sess)
	submit := command.NewSubmitChallengeHandler(sess, award)

	mathStrategy, err := strategy(cfg.Challenges.MathStrategy)
	if err != nil {
		return err
	}
	logicStrategy, err := strategy(cfg.Challenges.LogicStrategy)
	if err != nil {
		return err
	}
	mathQuiz := challenge.NewQuiz("Math Quiz", "Basic math", mathStrategy)
	mathQuiz.AddQuestion("6 x 7?", "42")
	logicQuiz := challenge.NewQuiz("Logic Quiz", "Logic questions", logicStrategy)
	logicQuiz.AddQuestion("Is every square a rectangle?", "Yes")

	attempts := []command.SubmitChallengeCommand{
		{
			UserID:     student.ID,
			Challenge:  mathQuiz.Challenge,
			Submission: challenge.Submission{"answer": "42"},
			Context:    challenge.ScoreContext{Correct: mathQuiz.CheckAnswer("42", "42")}.WithTime(10).WithAccuracy(1),
		},
		{
			UserID:     student.ID,
			Challenge:  logicQuiz.Challenge,
			Submission: challenge.Submission{"answer": "Yes"},
			Context:    challenge.ScoreContext{Correct: logicQuiz.CheckAnswer("Yes", "Yes")}.WithDifficulty(3).WithAccuracy(1),
		},
	}
	for i, a := range attempts {
		if cfg.Challenges.StreakBonus {
			a.Streak = i
		}
		a.DoubleXP = cfg.Challenges.DoubleXP
		res, err := submit.Handle(ctx, a)
		if err != nil {
			return fmt.Errorf("submit %s: %w", a.Challenge.Title, err)
		}
		view.Line("%s solved %s and earned %d points! Total: %d", student.Name, res.Challenge, res.Score, res.Award.Total)
	}

	if _, err := sess.LogAction(ctx, "Answered the math quiz"); err != nil {
		log.Warn("action not persisted", logger.Err(err))
	}
	if _, err := sess.LogAction(ctx, "Answered the logic quiz"); err != nil {
		log.Warn("action not persisted", logger.Err(err))
	}
	if _, err := sess.UndoLast(ctx); err != nil {
		log.Warn("undo failed", logger.Err(err))
	}

	view.Section("Action history")
	view.Actions(sess.Actions())
	if historyRepo != nil {
		latest, err := historyRepo.Latest(ctx, sess.ID())
		switch {
		case err == nil:
			view.Line("  last persisted: %s [%s]", latest.Result, latest.Status)
		case shared.IsNotFound(err):
			view.Line("  nothing persisted")
		default:
			log.Warn("failed to read persisted history", logger.Err(err))
		}
	}

	view.Section("Users")
	for _, u := range sess.Users() {
		view.User(u)
	}

	view.Section("Progress")
	if staff := cfg.Auth.StaffPassphrase; staff != "" {
		if err := teacher.SetPassword(staff); err != nil {
			return err
		}
		if _, err := sess.Authenticate(teacher.Name, staff); err != nil {
			return fmt.Errorf("staff login: %w", err)
		}
		view.Line("%s signed in", teacher.Name)
	}
	progress, err := query.NewGetUserProgressHandler(sess).Handle(ctx, query.GetUserProgressQuery{UserID: teacher.ID})
	if err != nil {
		return err
	}
	view.Progress(progress)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPORT AND RANKING
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureReportExport) {
		view.Section("Reports")
		opts := []report.FacadeOption{
			report.WithLogger(log),
			report.WithExporters(report.ExportersFor(cfg.Reports.Formats)...),
		}
		if cfg.Features.IsEnabled(config.FeatureRankingSync) {
			opts = append(opts, report.WithSender(adapter))
		}
		facade := report.NewFacade(cfg.Reports.OutputDir, opts...)

		prefix := fmt.Sprintf("%s_%s", cfg.Reports.Prefix, student.Role)
		res, err := facade.ExportAll(ctx, report.BuildUserReport(student, sess.Registry()), prefix)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		for _, f := range res.Files {
			view.Line("  wrote %s", f)
		}
		view.Line("  sent to ranking: %t", res.RankingSent)
	}

	var reader query.RankingReader
	if rankingCache != nil {
		reader = rankingCache
	}
	board, err := query.NewGetLeaderboardHandler(reader, standings, log).Handle(ctx, query.GetLeaderboardQuery{
		Cohort: cfg.Ranking.Cohort,
		Limit:  10,
	})
	if err != nil {
		return err
	}
	view.Section("Leaderboard")
	view.Leaderboard(board)

	if n := dispatcher.DeadLetterQueue().Size(); n > 0 {
		log.Warn("events left undelivered", logger.Int("count", n))
	}

	view.Section("Done")
	return nil
}

func strategy(name string) (challenge.ScoringStrategy, error) {
	s, ok := challenge.StrategyByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown scoring strategy %q", name)
	}
	return s, nil
}

func openHistoryStore(ctx context.Context, db config.DatabaseConfig) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig(db.URL)
	pgCfg.MaxConns = int32(db.MaxOpenConns)
	pgCfg.MinConns = int32(db.MaxIdleConns)
	pgCfg.MaxConnLifetime = db.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = db.ConnMaxIdleTime

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func redisConfig(r config.RedisConfig) redis.Config {
	c := redis.DefaultConfig()
	c.URL = r.URL
	c.Host = r.Host
	c.Port = r.Port
	c.Password = r.Password
	c.DB = r.DB
	c.PoolSize = r.PoolSize
	c.MinIdleConns = r.MinIdleConns
	c.DialTimeout = r.DialTimeout
	c.ReadTimeout = r.ReadTimeout
	c.WriteTimeout = r.WriteTimeout
	return c
}

func slogLevel(cfg *config.Config) slog.Level {
	switch logger.ParseLevel(cfg.Observability.LogLevel) {
	case logger.LevelDebug:
		return slog.LevelDebug
	case logger.LevelWarn:
		return slog.LevelWarn
	case logger.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
