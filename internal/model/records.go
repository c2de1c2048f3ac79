// Package model defines the checkpoint record types passed between the
// extract, enrich, and reconcile stages.
package model

import "github.com/sells-group/aexsync/pkg/aex"

// ServiceSummary is one record of the extract checkpoint: the flat listing
// fields of a changed service plus the status merged from the per-service
// detail call. Immutable once written; uniquely identified by ID.
type ServiceSummary struct {
	ID             int64  `json:"id"`
	Preorder       bool   `json:"preorder"`
	CustomerID     int64  `json:"customer_id"`
	ProductID      int64  `json:"product_id"`
	PremiseID      int64  `json:"premise_id"`
	Provisioned    bool   `json:"provisioned"`
	OnNetwork      bool   `json:"on_network"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	PromoCode      string `json:"promo_code,omitempty"`
	SalesAgent     string `json:"sales_agent,omitempty"`
	SalesChannelID *int64 `json:"sales_channel_id"`
	Cancelled      bool   `json:"cancelled"`
	CancelledDate  string `json:"cancelled_date,omitempty"`
	Status         string `json:"status"`
}

// ServiceEntry bundles a service's full detail with its work orders.
type ServiceEntry struct {
	ServiceDetails *aex.ServiceDetail `json:"service_details"`
	WorkOrders     aex.WorkOrderPage  `json:"work_orders"`
}

// EnrichedPremise is one record of the enrich checkpoint: the summary joined
// with service detail, work orders, and the owning customer's profile.
// Services holds at most one entry; the upstream data model attaches a single
// active service per premise.
type EnrichedPremise struct {
	ServiceSummary
	Services []ServiceEntry `json:"services"`
	Customer *aex.Customer  `json:"customer"`
}

// FirstPremise returns the premise detail of the first service entry that
// carries one, or nil.
func (p *EnrichedPremise) FirstPremise() *aex.Premise {
	for _, entry := range p.Services {
		if entry.ServiceDetails != nil && entry.ServiceDetails.FullService != nil {
			return &entry.ServiceDetails.FullService.Premise
		}
	}
	return nil
}

// FirstProduct returns the first non-empty product name across the service
// entries, or "".
func (p *EnrichedPremise) FirstProduct() string {
	for _, entry := range p.Services {
		if entry.ServiceDetails == nil || entry.ServiceDetails.FullService == nil {
			continue
		}
		if name := entry.ServiceDetails.FullService.ISPProduct.Name; name != "" {
			return name
		}
	}
	return ""
}
