package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/five82/tally/internal/cart"
	"github.com/five82/tally/internal/checkout"
	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/productsearch"
	"github.com/five82/tally/internal/reports"
	"github.com/five82/tally/internal/resources"
	"github.com/five82/tally/internal/session"
	"github.com/five82/tally/internal/ui"
)

// Options configure the tally application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tally/prefs.toml
	APIURL     string // overrides api_url from the config file
	Verbosity  int
}

// Run boots the tally TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logger, syncLog, err := obs.NewLogger(obs.Options{Path: cfg.LogFile, Verbosity: opts.Verbosity})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { err = multierr.Append(err, syncLog()) }()
	logger.Info("starting", "config", cfg.String())

	mgr := session.NewManager(cfg.SessionPath, logger.WithName("session"))
	client, err := posapi.NewClient(cfg.APIURL,
		posapi.WithTokenSource(mgr),
		posapi.WithLogger(logger.WithName("api")),
	)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	restoreSession(ctx, mgr, client, logger)

	events := ui.NewEvents()
	uiOpts := ui.Options{
		Context:       ctx,
		Session:       mgr,
		API:           client,
		Open:          workspaceOpener(client, mgr, cfg, events, logger),
		Events:        events,
		ThemeName:     userPrefs.Theme,
		PrefsPath:     opts.PrefsPath,
		PaymentMethod: userPrefs.PaymentMethod,
		LogPath:       cfg.LogFile,
		Logger:        logger.WithName("ui"),
	}
	runErr := ui.Run(uiOpts)

	// The saved token outlives the program; only the workspace stops.
	return multierr.Combine(runErr, mgr.Close())
}

// restoreSession validates a saved token before the UI starts. Any failure
// leaves the user at the sign-in screen.
func restoreSession(ctx context.Context, mgr *session.Manager, client *posapi.Client, logger logr.Logger) {
	ctx, cancel := context.WithTimeout(ctx, ui.RequestTimeout)
	defer cancel()

	_, err := mgr.Init(ctx, client)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotSignedIn):
		logger.V(obs.VERBOSE).Info("no saved session")
	default:
		logger.Error(err, "restore session")
	}
}

// workspaceOpener returns the function the UI calls after a sign-in. Every
// workspace it builds is torn down by the next logout.
func workspaceOpener(client *posapi.Client, mgr *session.Manager, cfg config.Config, events *ui.Events, logger logr.Logger) func(*posapi.User) *ui.Workspace {
	return func(user *posapi.User) *ui.Workspace {
		lists := resources.NewSet(client, resources.Config{
			PageSize: cfg.PageSize,
			User:     user,
			Logger:   logger.WithName("lists"),
			OnChange: events.ListChanged,
		})
		search := productsearch.New(client,
			productsearch.WithQuiet(cfg.SearchQuiet),
			productsearch.WithLimit(cfg.SuggestLimit),
			productsearch.WithLogger(logger.WithName("search")),
			productsearch.OnResults(events.SearchChanged),
		)
		reportSvc := reports.New(client, reports.WithLogger(logger.WithName("reports")))
		c := cart.New()
		flow := checkout.New(c, client,
			checkout.WithSearch(search),
			checkout.WithLogger(logger.WithName("checkout")),
		)

		mgr.OnLogout(func() error {
			search.Close()
			lists.Close()
			reportSvc.Close()
			c.Clear()
			return nil
		})

		return &ui.Workspace{
			User:     user,
			Lists:    lists,
			Search:   search,
			Cart:     c,
			Checkout: flow,
			Reports:  reportSvc,
		}
	}
}
