package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/aexsync/internal/checkpoint"
	"github.com/sells-group/aexsync/internal/model"
	"github.com/sells-group/aexsync/internal/runlog"
	"github.com/sells-group/aexsync/internal/sync"
	"github.com/sells-group/aexsync/pkg/aex"
	"github.com/sells-group/aexsync/pkg/hubspot"
)

// newAEXClient builds the upstream API client, failing fast when the token
// is absent.
func newAEXClient() (aex.Client, error) {
	if err := cfg.RequireAEXToken(); err != nil {
		return nil, err
	}
	return aex.NewClient(cfg.AEX.Token, aex.WithBaseURL(cfg.AEX.BaseURL)), nil
}

// newHubSpotClient builds the CRM client, failing fast when the token is
// absent.
func newHubSpotClient() (hubspot.Client, error) {
	if err := cfg.RequireHubSpotToken(); err != nil {
		return nil, err
	}
	return hubspot.NewClient(cfg.HubSpot.Token,
		hubspot.WithBaseURL(cfg.HubSpot.BaseURL),
		hubspot.WithRateLimit(cfg.HubSpot.RateLimit),
	), nil
}

// openRunLog opens the run manifest configured under sync.run_db.
func openRunLog() (*runlog.Log, error) {
	return runlog.Open(cfg.Sync.RunDB)
}

// withRunEntry records a stage run around fn, marking it failed when fn
// returns an error and complete otherwise.
func withRunEntry(ctx context.Context, rl *runlog.Log, stage string, fn func(ctx context.Context) (int64, map[string]any, error)) error {
	runID, err := rl.Start(ctx, stage)
	if err != nil {
		return err
	}

	records, metadata, err := fn(ctx)
	if err != nil {
		if failErr := rl.Fail(ctx, runID, err.Error()); failErr != nil {
			zap.L().Error("record run failure", zap.String("run_id", runID), zap.Error(failErr))
		}
		return err
	}
	return rl.Complete(ctx, runID, records, metadata)
}

// sinceTime resolves the extraction window start: now minus hours, with
// hours falling back to the configured window.
func sinceTime(hours int) time.Time {
	if hours <= 0 {
		hours = cfg.Sync.WindowHours
	}
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}

// runExtract executes the extract stage and writes the services checkpoint.
func runExtract(ctx context.Context, rl *runlog.Log, hours int) error {
	client, err := newAEXClient()
	if err != nil {
		return err
	}

	return withRunEntry(ctx, rl, "extract", func(ctx context.Context) (int64, map[string]any, error) {
		summaries, err := sync.NewExtractor(client).Extract(ctx, sinceTime(hours))
		if err != nil {
			return 0, nil, eris.Wrap(err, "extract")
		}
		if err := checkpoint.Write(cfg.Sync.ServicesFile, summaries); err != nil {
			return 0, nil, err
		}
		return int64(len(summaries)), map[string]any{"checkpoint": cfg.Sync.ServicesFile}, nil
	})
}

// runEnrich executes the enrich stage between the two checkpoints.
func runEnrich(ctx context.Context, rl *runlog.Log) error {
	client, err := newAEXClient()
	if err != nil {
		return err
	}

	return withRunEntry(ctx, rl, "enrich", func(ctx context.Context) (int64, map[string]any, error) {
		summaries, err := checkpoint.Read[model.ServiceSummary](cfg.Sync.ServicesFile)
		if err != nil {
			return 0, nil, err
		}
		enriched, err := sync.NewEnricher(client).Enrich(ctx, summaries)
		if err != nil {
			return 0, nil, eris.Wrap(err, "enrich")
		}
		if err := checkpoint.Write(cfg.Sync.EnrichedFile, enriched); err != nil {
			return 0, nil, err
		}
		return int64(len(enriched)), map[string]any{"checkpoint": cfg.Sync.EnrichedFile}, nil
	})
}

// runReconcile executes the reconcile stage against HubSpot.
func runReconcile(ctx context.Context, rl *runlog.Log) error {
	crm, err := newHubSpotClient()
	if err != nil {
		return err
	}

	salesReps, err := sync.LoadSalesReps(cfg.Sync.SalesRepFile)
	if err != nil {
		zap.L().Error("load sales rep table", zap.Error(err))
		salesReps = nil
	}
	ticketTypes, err := sync.LoadTicketTypes(cfg.Sync.TicketTypesFile)
	if err != nil {
		zap.L().Error("load ticket types", zap.Error(err))
	}

	return withRunEntry(ctx, rl, "reconcile", func(ctx context.Context) (int64, map[string]any, error) {
		enriched, err := checkpoint.Read[model.EnrichedPremise](cfg.Sync.EnrichedFile)
		if err != nil {
			return 0, nil, err
		}
		stats, err := sync.NewReconciler(crm, salesReps, ticketTypes).Reconcile(ctx, enriched)
		if err != nil {
			return 0, nil, eris.Wrap(err, "reconcile")
		}
		metadata := map[string]any{
			"contacts_created": stats.ContactsCreated,
			"contacts_updated": stats.ContactsUpdated,
			"tickets_created":  stats.TicketsCreated,
			"tickets_updated":  stats.TicketsUpdated,
			"skipped":          stats.Skipped,
			"errors":           stats.Errors,
		}
		return int64(len(enriched)), metadata, nil
	})
}

// runPipeline executes extract, enrich, and reconcile sequentially through
// the checkpoint files.
func runPipeline(ctx context.Context, rl *runlog.Log, hours int) error {
	if err := runExtract(ctx, rl, hours); err != nil {
		return err
	}
	if err := runEnrich(ctx, rl); err != nil {
		return err
	}
	return runReconcile(ctx, rl)
}
