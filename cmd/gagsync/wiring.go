package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"gagsync/internal/downloader"
	"gagsync/pkg/auth"
	"gagsync/pkg/browser"
	"gagsync/pkg/cache"
	"gagsync/pkg/catalog"
	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/harvest"
	"gagsync/pkg/journal"
	"gagsync/pkg/logger"
	"gagsync/pkg/session"
	"gagsync/pkg/ui"
	"gagsync/pkg/ui/tui"
)

// credentials chains the configured login with the credential manager
func credentials(cfg *config.Config, log logger.Logger) session.Credentials {
	chain := session.ChainCredentials{
		session.StaticCredentials{Username: cfg.Session.Username, Password: cfg.Session.Password},
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential manager unavailable")
		return chain
	}
	return append(chain, manager)
}

// openSession starts the browser and authenticates it. The caller closes
// the returned handle.
func openSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*session.Handle, error) {
	chrome, err := browser.NewChrome(cfg.Browser, log)
	if err != nil {
		return nil, err
	}

	boot := session.NewBootstrap(
		chrome,
		session.NewCookieStore(cfg.Session.CookiePath),
		credentials(cfg, log),
		session.OptionsFromConfig(cfg),
		log,
	)
	handle, err := boot.EnsureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if handle.FreshLogin {
		log.WithField("cookies", cfg.Session.CookiePath).Info("logged in with the login form, session saved")
	}
	return handle, nil
}

// buildSinks creates the enabled sinks. The catalog schema is validated
// here, before any browser work starts.
func buildSinks(ctx context.Context, cfg *config.Config, log logger.Logger) (harvest.Sinks, *catalog.Catalog, error) {
	var sinks harvest.Sinks

	if cfg.Cache.Enabled {
		local, err := newCache(cfg, log)
		if err != nil {
			return sinks, nil, err
		}
		sinks.Local = local
	}

	var remote *catalog.Catalog
	if cfg.Catalog.Enabled {
		var err error
		remote, err = catalog.FromConfig(ctx, cfg, log)
		if err != nil {
			return sinks, nil, err
		}
		sinks.Remote = remote.Sink()
	}

	if sinks.Local == nil && sinks.Remote == nil {
		return sinks, nil, errs.New(errs.ErrorTypeConfig, "both the local cache and the remote catalog are disabled")
	}
	return sinks, remote, nil
}

func newCache(cfg *config.Config, log logger.Logger) (*cache.Sink, error) {
	client := downloader.New(cfg.Cache, session.NewCookieStore(cfg.Session.CookiePath), log)
	return cache.New(cfg.Cache, client, log)
}

// requireCatalog connects to the catalog even when a command runs
// without the remote sink.
func requireCatalog(ctx context.Context, cfg *config.Config, log logger.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog.Token == "" || cfg.Catalog.DatabaseID == "" {
		return nil, errs.New(errs.ErrorTypeConfig, "this command needs NOTION_TOKEN and NOTION_DATABASE")
	}
	return catalog.FromConfig(ctx, cfg, log)
}

// harvestRun describes one orchestrated run
type harvestRun struct {
	name   string
	source harvest.BatchSource
	sinks  harvest.Sinks
	policy harvest.Policy
	useTUI bool
}

// runHarvest drives source through the sinks with progress output, the
// journal and the final summary.
func runHarvest(ctx context.Context, cfg *config.Config, log logger.Logger, run harvestRun) error {
	opts := []harvest.Option{harvest.WithCommand(run.name)}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			log.WithError(err).Warn("journal unavailable, run will not be recorded")
		} else {
			defer j.Close()
			opts = append(opts, harvest.WithRecorder(j))
		}
	}

	var (
		summary harvest.Summary
		runErr  error
	)

	if run.useTUI {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		dash := tui.NewTUI(run.name, cancel)
		opts = append(opts, harvest.WithProgress(dash))

		done := make(chan struct{})
		go func() {
			defer close(done)
			summary, runErr = harvest.New(run.sinks, run.policy, log, opts...).Run(ctx, run.source)
			dash.Done(runErr)
		}()

		if err := dash.Start(); err != nil {
			cancel()
			<-done
			return fmt.Errorf("dashboard failed: %w", err)
		}
		<-done
	} else {
		var display *ui.ProgressDisplay
		if term.IsTerminal(int(os.Stdout.Fd())) || verbose {
			display = ui.NewProgressDisplay(os.Stdout, run.name, verbose)
			opts = append(opts, harvest.WithProgress(display))
		}
		summary, runErr = harvest.New(run.sinks, run.policy, log, opts...).Run(ctx, run.source)
		if display != nil {
			display.Finish()
		}
	}

	fmt.Println()
	fmt.Println(ui.RenderSummary(run.name, summary, runErr))

	if notifications {
		ui.NewNotifier().NotifyRun(run.name, summary, runErr)
	}
	return runErr
}
