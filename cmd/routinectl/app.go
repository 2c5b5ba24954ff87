package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/routinesharing/internal/config"
	"github.com/Lllllllleong/routinesharing/internal/gcp"
	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/ledger"
	"github.com/Lllllllleong/routinesharing/internal/localstore"
	"github.com/Lllllllleong/routinesharing/internal/routines"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

// app is one CLI invocation: the controller plus what it must close.
type app struct {
	cfg       *config.Config
	ctrl      *services.Controller
	svc       *services.RoutineService
	kv        *localstore.SQLite
	firestore *firestore.Client
	storage   *storage.Client
}

// openApp starts the identity handshake right away so it runs while the
// listing is fetched.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, err := localstore.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, kv: kv}

	a.firestore, err = gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := []services.RoutineOption{services.WithAuthTimeout(cfg.GetAuthTimeout())}
	if cfg.ExportBucket != "" {
		a.storage, err = storage.NewClient(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create Storage client: %w", err)
		}
		opts = append(opts, services.WithPublisher(gcp.NewExportPublisher(a.storage, cfg.ExportBucket)))
	}
	a.svc = services.NewRoutineServiceWithStore(gcp.NewRoutineStore(a.firestore, cfg.Collection), opts...)

	ids := identity.Start(ctx, identity.LocalResolver(kv), cfg.GetAuthTimeout())
	a.ctrl, err = services.NewController(ctx, a.svc, ledger.New(kv), ids, kv)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) defaultSort() routines.SortOrder {
	sort, err := routines.ParseSortOrder(a.cfg.Sort)
	if err != nil {
		return routines.SortRecent
	}
	return sort
}

func (a *app) refresh(ctx context.Context) error {
	return a.ctrl.Refresh(ctx, routines.ListOptions{Sort: a.defaultSort()})
}

func (a *app) Close() {
	if a.storage != nil {
		_ = a.storage.Close()
	}
	if a.firestore != nil {
		_ = a.firestore.Close()
	}
	_ = a.kv.Close()
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
