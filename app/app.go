package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smartyg/competitionnotify/app/api"
	"github.com/smartyg/competitionnotify/app/cfg"
	"github.com/smartyg/competitionnotify/app/console"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/notify"
	"github.com/smartyg/competitionnotify/app/registry"
	"github.com/smartyg/competitionnotify/app/schaatsen"
	"github.com/smartyg/competitionnotify/app/tasks"
)

// App owns every long-lived component. It is built once at startup and
// passed by reference; there is no package level state besides the config.
type App struct {
	db         *database.DB
	supervisor *tasks.Supervisor
	poller     *tasks.Poller
	console    *console.Console
	router     http.Handler
}

// status joins the poller snapshot and the supervisor task count.
type status struct {
	*tasks.Poller
	*tasks.Supervisor
}

// New wires the application. Only a database that cannot be opened is
// fatal; a missing registry or template degrades with a warning.
func New(c *cfg.Cfg) (*App, error) {
	db, err := database.Open(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Info("Database opened", "path", c.DBPath)

	processedRepo := database.NewProcessedRepository(db)
	notificationRepo := database.NewNotificationRepository(db, c.MaxBodyBytes)
	venueRepo := database.NewVenueRepository(db)

	repaired, err := tasks.RepairOrphans(context.Background(), notificationRepo, processedRepo)
	if err != nil {
		slog.Error("Failed to repair orphaned notifications", "error", err)
	} else if repaired > 0 {
		slog.Info("Orphaned notifications repaired", "count", repaired)
	}

	reg, err := registry.Load(c.RegistryFile)
	if err != nil {
		slog.Warn("Recipient registry unavailable, continuing without recipients", "file", c.RegistryFile, "error", err)
		reg, _ = registry.New(nil)
	}
	slog.Info("Recipient registry loaded", "recipients", reg.Count())

	renderer, err := notify.NewRenderer(c.TemplateFile, c.MinifyHTML)
	if err != nil {
		slog.Warn("Notification template unavailable, using built-in template", "file", c.TemplateFile, "error", err)
		if renderer, err = notify.NewRenderer("", c.MinifyHTML); err != nil {
			db.Close()
			return nil, err
		}
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	client := schaatsen.NewClient(httpClient, c.APIBaseUrl, c.UserAgent, c.RequestsPerSecond)

	supervisor := tasks.NewSupervisor(c.CancelGrace)
	processor := tasks.NewProcessor(client, reg, renderer, processedRepo, notificationRepo, venueRepo, c.SiteBaseUrl)
	poller, err := tasks.NewPoller(client, processedRepo, venueRepo, db, processor, supervisor, c.DiscoverySchedule, c.JitterMax)
	if err != nil {
		db.Close()
		return nil, err
	}

	cons := console.New()
	modules := []console.Module{
		console.CompetitionsModule(poller, supervisor, processedRepo),
		console.VenuesModule(venueRepo),
		console.RecipientsModule(reg),
		console.NotificationsModule(notificationRepo),
	}
	for _, m := range modules {
		if err := cons.Register(m); err != nil {
			db.Close()
			return nil, err
		}
	}

	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", c.Port)
	}
	generator := notify.NewFeedGenerator(baseURL, c.SiteBaseUrl, c.Version)
	handler := api.NewHandler(processedRepo, notificationRepo, generator, cons, status{poller, supervisor}, c.Version)

	return &App{
		db:         db,
		supervisor: supervisor,
		poller:     poller,
		console:    cons,
		router:     api.NewServer(handler, c.APIAccessKey),
	}, nil
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run blocks until ctx is cancelled. All tasks are joined and the store is
// flushed before it returns.
func (a *App) Run(ctx context.Context) {
	a.poller.Run(ctx)
}

func (a *App) Close() error {
	return a.db.Close()
}
