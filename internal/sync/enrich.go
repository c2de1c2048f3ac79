package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/aexsync/internal/model"
	"github.com/sells-group/aexsync/pkg/aex"
)

// Enricher joins service summaries with full service detail, work orders,
// and customer profiles.
type Enricher struct {
	client aex.Client
	log    *zap.Logger
}

// NewEnricher creates an Enricher backed by the given AEX client.
func NewEnricher(client aex.Client) *Enricher {
	return &Enricher{
		client: client,
		log:    zap.L().With(zap.String("stage", "enrich")),
	}
}

// Enrich produces one EnrichedPremise per summary. Sub-fetch failures
// default to empty values and are logged; a malformed service record leaves
// the premise with an empty services list. Input records are not mutated.
// Only context cancellation is returned as an error.
func (e *Enricher) Enrich(ctx context.Context, summaries []model.ServiceSummary) ([]model.EnrichedPremise, error) {
	enriched := make([]model.EnrichedPremise, 0, len(summaries))
	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		premise := model.EnrichedPremise{
			ServiceSummary: summary,
			Services:       e.fetchServices(ctx, summary.ID),
			Customer:       e.fetchCustomer(ctx, summary.CustomerID),
		}
		enriched = append(enriched, premise)
	}

	e.log.Info("enrich complete", zap.Int("premises", len(enriched)))
	return enriched, nil
}

// fetchServices validates the service record and, if well-formed, packages
// its full detail and work orders as the premise's single service entry.
func (e *Enricher) fetchServices(ctx context.Context, serviceID int64) []model.ServiceEntry {
	svc, err := e.client.GetService(ctx, serviceID)
	if err != nil || svc.ID == 0 {
		e.log.Warn("invalid service data, skipping service join",
			zap.Int64("service_id", serviceID),
			zap.Error(err),
		)
		return []model.ServiceEntry{}
	}

	entry := model.ServiceEntry{}

	detail, err := e.client.GetFullService(ctx, serviceID)
	if err != nil {
		e.log.Warn("fetch full service failed",
			zap.Int64("service_id", serviceID),
			zap.Error(err),
		)
	} else {
		entry.ServiceDetails = detail
	}

	workOrders, err := e.client.ListWorkOrders(ctx, serviceID)
	if err != nil {
		e.log.Warn("fetch work orders failed",
			zap.Int64("service_id", serviceID),
			zap.Error(err),
		)
	} else {
		entry.WorkOrders = *workOrders
	}

	return []model.ServiceEntry{entry}
}

// fetchCustomer fetches the customer profile and service list; both calls
// must succeed for the profile to be attached. Only the profile is kept.
func (e *Enricher) fetchCustomer(ctx context.Context, customerID int64) *aex.Customer {
	customer, err := e.client.GetCustomer(ctx, customerID)
	if err != nil {
		e.log.Warn("fetch customer failed",
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return nil
	}

	if _, err := e.client.ListCustomerServices(ctx, customerID); err != nil {
		e.log.Warn("fetch customer services failed",
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return nil
	}

	return customer
}
