package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/rotation-scheduler/internal/application"
	"github.com/example/rotation-scheduler/internal/calendar"
	"github.com/example/rotation-scheduler/internal/config"
	httptransport "github.com/example/rotation-scheduler/internal/http"
	"github.com/example/rotation-scheduler/internal/logging"
	"github.com/example/rotation-scheduler/internal/persistence/sqlite"
	"github.com/example/rotation-scheduler/internal/rotation"
)

const sessionPurgeInterval = time.Hour

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	bootstrap := logging.New(os.Stdout, "info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	groupRepo := sqlite.NewGroupRepository(pool)
	skipWeekRepo := sqlite.NewSkipWeekRepository(pool)
	rotationRepo := sqlite.NewRotationRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	groupStore := newGroupStoreAdapter(groupRepo)
	userStore := newUserStoreAdapter(userRepo)
	skipWeekStore := newSkipWeekStoreAdapter(skipWeekRepo)
	rotationStore := newRotationStoreAdapter(rotationRepo)
	sessionStore := newSessionStoreAdapter(sessionRepo)
	credentialDirectory := newCredentialDirectoryAdapter(userRepo)

	var tokenSource calendar.TokenSource
	if cfg.Calendar.ClientID != "" && cfg.Calendar.ClientSecret != "" {
		tokenSource = calendar.NewGoogleTokenSource(nil, cfg.Calendar.ClientID, cfg.Calendar.ClientSecret)
	} else {
		logger.Warn("calendar OAuth client not configured, expired tokens will not be refreshed")
	}

	synchronizer := calendar.NewSynchronizer(calendar.SynchronizerConfig{
		Client:      calendar.NewGoogleClient(nil, cfg.Calendar.CalendarID),
		Tokens:      tokenSource,
		Credentials: newCalendarCredentialAdapter(userRepo),
		RatePerSec:  int(cfg.Calendar.RatePerSec),
		MaxAttempts: cfg.Calendar.MaxAttempts,
		CallTimeout: cfg.Calendar.CallTimeout,
		Now:         now,
		Logger:      logger,
	})

	locks := application.NewGroupLocks()
	groupService := application.NewGroupService(groupStore, userStore, skipWeekStore, locks, idGenerator, now, logger)
	rotationService := application.NewRotationService(groupStore, userStore, rotationStore, skipWeekStore, synchronizer, locks, idGenerator, now, logger)
	userService := application.NewUserService(userStore, idGenerator, now, logger)
	authService := application.NewAuthService(credentialDirectory, sessionStore, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	userHandler := httptransport.NewUserHandler(userService, logger)
	groupHandler := httptransport.NewGroupHandler(groupService, rotationService, logger)
	rotationHandler := httptransport.NewRotationHandler(rotationService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      authHandler,
		Users:     userHandler,
		Groups:    groupHandler,
		Rotations: rotationHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Path, "/login") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	go purgeSessions(ctx, logger, authService)

	if cfg.AutoSchedule.Enabled {
		runner := cron.New()
		_, err := runner.AddFunc(cfg.AutoSchedule.Cron, func() {
			autoSchedule(ctx, logger, groupStore, rotationStore, rotationService, cfg.AutoSchedule.Horizon, now)
		})
		if err != nil {
			logger.Error("failed to register auto schedule job", "error", err, "cron", cfg.AutoSchedule.Cron)
			os.Exit(1)
		}
		runner.Start()
		defer runner.Stop()
		logger.Info("auto schedule job registered", "cron", cfg.AutoSchedule.Cron, "horizon", cfg.AutoSchedule.Horizon)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("rotation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// purgeSessions deletes expired sessions on a fixed interval until the
// process context ends.
func purgeSessions(ctx context.Context, logger *slog.Logger, auth *application.AuthService) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
			}
		}
	}
}

// autoSchedule tops up upcoming rotations for every active group. Periods
// that already carry a rotation are left alone; each missing period is
// scheduled individually so one group's failure does not block the rest.
func autoSchedule(ctx context.Context, logger *slog.Logger, groups application.GroupStore, rotations application.RotationStore, service *application.RotationService, horizon int, now func() time.Time) {
	if horizon < 1 {
		return
	}

	active, err := groups.ListGroups(ctx, true)
	if err != nil {
		logger.Error("auto schedule could not list groups", "error", err)
		return
	}

	base := rotation.AddPeriods(rotation.PeriodStart(now().UTC()), 1)
	principal := application.Principal{UserID: "auto-schedule", IsAdmin: true}

	for _, group := range active {
		existing, err := rotations.ListRotations(ctx, application.RotationFilter{
			GroupID:    group.ID,
			PeriodFrom: rotation.FormatPeriod(base),
		})
		if err != nil {
			logger.Error("auto schedule could not list rotations", "error", err, "group_id", group.ID)
			continue
		}

		for _, period := range missingPeriods(existing, base, horizon) {
			if _, err := service.ScheduleRotations(ctx, application.ScheduleRotationsParams{
				Principal:   principal,
				GroupID:     group.ID,
				PeriodCount: 1,
				StartPeriod: period,
			}); err != nil {
				logger.Error("auto schedule failed for period", "error", err, "group_id", group.ID, "period_start", period)
				continue
			}
			logger.Info("auto scheduled rotation", "group_id", group.ID, "period_start", period)
		}
	}
}

// missingPeriods returns the period starts within the horizon that have no
// live rotation yet. Cancelled rotations do not count as coverage.
func missingPeriods(existing []application.Rotation, base time.Time, horizon int) []string {
	covered := make(map[string]bool, len(existing))
	for _, record := range existing {
		if record.Status == application.RotationStatusCancelled {
			continue
		}
		covered[record.PeriodStart] = true
	}

	var missing []string
	for i := 0; i < horizon; i++ {
		period := rotation.FormatPeriod(rotation.AddPeriods(base, i))
		if !covered[period] {
			missing = append(missing, period)
		}
	}
	return missing
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
