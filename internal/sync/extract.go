// Package sync implements the three-stage AEX-to-HubSpot pipeline:
// incremental extraction, fan-out enrichment, and CRM reconciliation.
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/aexsync/internal/model"
	"github.com/sells-group/aexsync/pkg/aex"
)

// pageSize is the implicit AEX listing page size. A page with fewer items
// is the last one.
const pageSize = 10

// updatedAfterLayout is the timestamp format the /services listing expects.
const updatedAfterLayout = "2006-01-02 15:04:05"

// Extractor pulls service records changed within a recency window.
type Extractor struct {
	client aex.Client
	log    *zap.Logger
}

// NewExtractor creates an Extractor backed by the given AEX client.
func NewExtractor(client aex.Client) *Extractor {
	return &Extractor{
		client: client,
		log:    zap.L().With(zap.String("stage", "extract")),
	}
}

// Extract pages through services updated after since, merges the status from
// each service's detail record, and returns the flat summary list. Fetch
// failures are logged and skipped: a failed page ends pagination, a failed
// detail call drops that service. Only context cancellation is returned as
// an error.
func (e *Extractor) Extract(ctx context.Context, since time.Time) ([]model.ServiceSummary, error) {
	updatedAfter := since.Format(updatedAfterLayout)
	e.log.Info("extracting changed services", zap.String("updated_after", updatedAfter))

	var summaries []model.ServiceSummary
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageResp, err := e.client.ListServices(ctx, updatedAfter, page)
		if err != nil {
			e.log.Error("fetch services page failed", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(pageResp.Items) == 0 {
			e.log.Info("no more data", zap.Int("page", page))
			break
		}

		e.log.Info("processing services page",
			zap.Int("page", page),
			zap.Int("count", len(pageResp.Items)),
		)

		for _, svc := range pageResp.Items {
			detail, err := e.client.GetService(ctx, svc.ID)
			if err != nil {
				e.log.Warn("fetch service detail failed, dropping service",
					zap.Int64("service_id", svc.ID),
					zap.Error(err),
				)
				continue
			}
			summaries = append(summaries, mergeSummary(svc, detail))
		}

		if len(pageResp.Items) < pageSize {
			e.log.Info("reached last page", zap.Int("page", page))
			break
		}
	}

	e.log.Info("extract complete", zap.Int("services", len(summaries)))
	return summaries, nil
}

// mergeSummary combines a listing item with the status from its detail
// record. All other fields come from the listing response.
func mergeSummary(svc aex.Service, detail *aex.Service) model.ServiceSummary {
	return model.ServiceSummary{
		ID:             svc.ID,
		Preorder:       svc.Preorder,
		CustomerID:     svc.CustomerID,
		ProductID:      svc.ProductID,
		PremiseID:      svc.PremiseID,
		Provisioned:    svc.Provisioned,
		OnNetwork:      svc.OnNetwork,
		CreatedAt:      svc.CreatedAt,
		UpdatedAt:      svc.UpdatedAt,
		PromoCode:      svc.PromoCode,
		SalesAgent:     svc.SalesAgent,
		SalesChannelID: svc.SalesChannelID,
		Cancelled:      svc.Cancelled,
		CancelledDate:  svc.CancelledDate,
		Status:         detail.Status,
	}
}
