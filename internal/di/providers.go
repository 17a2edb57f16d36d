package di

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/capture"
	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/internal/database"
	"github.com/workplus/workplus/internal/identity"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/quiet"
	"github.com/workplus/workplus/internal/reporting"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/internal/upload"
	"github.com/workplus/workplus/internal/web"
	"github.com/workplus/workplus/pkg/desktop"
)

// ProviderSet builds every agent component from the config, a logger and a
// desktop backend
var ProviderSet = wire.NewSet(
	ProvideDatabase,
	database.NewRepository,
	metrics.New,
	ProvideActivityLogger,
	ProvideIdentity,
	ProvideQuietPolicy,
	ProvideHTTPClient,
	ProvideProbe,
	ProvideQueue,
	ProvideUploader,
	ProvideRetryScheduler,
	ProvideDetector,
	ProvidePipeline,
	ProvideJanitor,
	ProvideGapReporter,
	ProvideDailyReporter,
	ProvideWebServer,
)

func component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func ProvideDatabase(cfg *config.Config) (*database.DB, func(), error) {
	db, err := database.Connect(cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func ProvideActivityLogger(log zerolog.Logger, cfg *config.Config) *activitylog.Logger {
	return activitylog.New(component(log, "activitylog"), cfg.BaseDir)
}

func ProvideIdentity(log zerolog.Logger, cfg *config.Config) *identity.Resolver {
	return identity.NewResolver(component(log, "identity"), cfg.Identity.File, cfg.Identity.Default, cfg.Identity.CacheTTL)
}

func ProvideQuietPolicy(cfg *config.Config) (quiet.Policy, error) {
	if !cfg.QuietHours.Enabled {
		return quiet.Policy{}, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return quiet.Policy{}, err
	}
	return quiet.NewPolicy(cfg.QuietHours.CutoffHour, loc), nil
}

func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Upload.Timeout}
}

func ProvideProbe(cfg *config.Config) upload.Prober {
	return upload.NewDialProbe(cfg.Upload.ProbeAddress, cfg.Upload.ProbeTimeout)
}

func ProvideQueue(cfg *config.Config) *upload.FailedQueue {
	return upload.NewFailedQueue(cfg.ScreenshotDir(), cfg.FailedDir())
}

func ProvideUploader(log zerolog.Logger, cfg *config.Config, client *http.Client, probe upload.Prober, queue *upload.FailedQueue,
	id *identity.Resolver, activity *activitylog.Logger, repo *database.Repository, rec metrics.Recorder) *upload.Uploader {
	return upload.NewUploader(component(log, "uploader"), upload.Options{
		URL:      cfg.Upload.ScreenshotURL,
		Client:   client,
		Probe:    probe,
		Queue:    queue,
		Identity: id,
		Activity: activity,
		Journal:  repo,
		Metrics:  rec,
	})
}

func ProvideRetryScheduler(log zerolog.Logger, uploader *upload.Uploader, queue *upload.FailedQueue, probe upload.Prober,
	activity *activitylog.Logger, rec metrics.Recorder) *upload.RetryScheduler {
	return upload.NewRetryScheduler(component(log, "retry"), uploader, queue, probe, activity, rec)
}

func ProvideDetector(log zerolog.Logger, cfg *config.Config, backend desktop.Backend, policy quiet.Policy) *status.Detector {
	return status.NewDetector(component(log, "status"), backend, policy, cfg.Status.IdleThreshold)
}

func ProvidePipeline(log zerolog.Logger, cfg *config.Config, backend desktop.Backend, policy quiet.Policy, id *identity.Resolver,
	activity *activitylog.Logger, repo *database.Repository, rec metrics.Recorder, uploader *upload.Uploader) *capture.Pipeline {
	return capture.NewPipeline(component(log, "capture"), cfg.ScreenshotDir(), capture.Deps{
		Grabber:  backend,
		Locks:    backend,
		Policy:   policy,
		Identity: id,
		Activity: activity,
		Journal:  repo,
		Metrics:  rec,
		Deliver: func(ctx context.Context, a capture.Artifact) {
			uploader.Upload(ctx, a)
		},
	})
}

func ProvideJanitor(log zerolog.Logger, cfg *config.Config, activity *activitylog.Logger) *activitylog.Janitor {
	return activitylog.NewJanitor(component(log, "janitor"), activity, cfg.Logs.ArchiveAfterDays, cfg.Logs.RetentionDays)
}

// ProvideGapReporter uses a client bounded by upload.statusTimeout
func ProvideGapReporter(log zerolog.Logger, cfg *config.Config, prober upload.Prober, id *identity.Resolver, repo *database.Repository) *reporting.GapReporter {
	client := &http.Client{Timeout: cfg.Upload.StatusTimeout}
	return reporting.NewGapReporter(component(log, "gap"), client, cfg.Upload.StatusURL, id, prober, repo)
}

func ProvideDailyReporter(log zerolog.Logger, cfg *config.Config, client *http.Client, id *identity.Resolver, activity *activitylog.Logger) (*reporting.DailyActivityReporter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return reporting.NewDailyActivityReporter(component(log, "daily"), client, cfg.Upload.DailyActivityURL, id, activity, loc), nil
}

// ProvideWebServer returns nil when the status API is disabled
func ProvideWebServer(log zerolog.Logger, cfg *config.Config, detector *status.Detector, queue *upload.FailedQueue,
	repo *database.Repository, rec metrics.Recorder) *web.Server {
	if !cfg.Web.Enabled {
		return nil
	}
	log = component(log, "web")
	handler := web.NewHandler(log, cfg, detector, queue, repo)
	return web.NewServer(log, cfg, handler, rec)
}
