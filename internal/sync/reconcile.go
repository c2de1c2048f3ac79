package sync

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/aexsync/internal/model"
	"github.com/sells-group/aexsync/pkg/aex"
	"github.com/sells-group/aexsync/pkg/hubspot"
)

// ticketContactAssociationType is the user-defined ticket-to-contact
// association type id in the target HubSpot portal.
const ticketContactAssociationType = 81

// existingIDPattern extracts the canonical object id from a HubSpot 409
// conflict body ("... Existing ID: 555 ...").
var existingIDPattern = regexp.MustCompile(`Existing ID: (\d+)`)

// Stats counts the outcomes of a reconcile run.
type Stats struct {
	ContactsCreated int `json:"contacts_created"`
	ContactsUpdated int `json:"contacts_updated"`
	TicketsCreated  int `json:"tickets_created"`
	TicketsUpdated  int `json:"tickets_updated"`
	Skipped         int `json:"skipped"`
	Errors          int `json:"errors"`
}

// Reconciler upserts enriched premises into HubSpot contacts and tickets.
// Deduplication is search-before-write; at most one reconciler may run at a
// time against overlapping data, which is not enforced in-process.
type Reconciler struct {
	crm         hubspot.Client
	salesReps   *SalesRepTable
	ticketTypes TicketTypes
	log         *zap.Logger
}

// NewReconciler creates a Reconciler with the given CRM client and
// read-only reference tables.
func NewReconciler(crm hubspot.Client, salesReps *SalesRepTable, ticketTypes TicketTypes) *Reconciler {
	return &Reconciler{
		crm:         crm,
		salesReps:   salesReps,
		ticketTypes: ticketTypes,
		log:         zap.L().With(zap.String("stage", "reconcile")),
	}
}

// Reconcile upserts a contact per premise and a ticket per work order.
// Individual failures are logged and counted; only context cancellation is
// returned as an error.
func (r *Reconciler) Reconcile(ctx context.Context, premises []model.EnrichedPremise) (*Stats, error) {
	stats := &Stats{}
	for i := range premises {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		premise := &premises[i]

		if premise.Customer == nil {
			r.log.Warn("customer data missing, skipping premise", zap.Int64("service_id", premise.ID))
			stats.Skipped++
			continue
		}
		if premise.ID == 0 {
			r.log.Warn("service id missing, skipping premise", zap.Int64("premise_id", premise.PremiseID))
			stats.Skipped++
			continue
		}

		contactID, err := r.upsertContact(ctx, premise, stats)
		if err != nil {
			r.log.Error("contact upsert failed",
				zap.Int64("premise_id", premise.PremiseID),
				zap.Error(err),
			)
			stats.Errors++
			continue
		}

		if len(r.ticketTypes) == 0 {
			r.log.Error("ticket type reference is empty, skipping work orders",
				zap.Int64("premise_id", premise.PremiseID),
			)
			stats.Errors++
			continue
		}

		for _, entry := range premise.Services {
			if entry.ServiceDetails == nil {
				r.log.Warn("service details missing, skipping work orders",
					zap.Int64("premise_id", premise.PremiseID),
				)
				continue
			}
			for _, workOrder := range entry.WorkOrders.Items {
				r.upsertTicket(ctx, contactID, premise, workOrder, stats)
			}
		}
	}

	r.log.Info("reconcile complete",
		zap.Int("contacts_created", stats.ContactsCreated),
		zap.Int("contacts_updated", stats.ContactsUpdated),
		zap.Int("tickets_created", stats.TicketsCreated),
		zap.Int("tickets_updated", stats.TicketsUpdated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

// upsertContact resolves or creates the CRM contact for a premise and
// returns its id.
func (r *Reconciler) upsertContact(ctx context.Context, premise *model.EnrichedPremise, stats *Stats) (string, error) {
	properties := r.buildContactProperties(premise)

	email := premise.Customer.Email
	aexID := strconv.FormatInt(premise.PremiseID, 10)

	existingID, err := r.findContact(ctx, email, aexID)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		if err := r.updateContact(ctx, existingID, properties); err != nil {
			return "", err
		}
		stats.ContactsUpdated++
		return existingID, nil
	}

	contact, err := r.crm.CreateContact(ctx, properties)
	if err != nil {
		return "", err
	}
	r.log.Info("contact created", zap.String("aex_id", aexID), zap.String("contact_id", contact.ID))
	stats.ContactsCreated++
	return contact.ID, nil
}

// updateContact patches a contact, recovering once from a 409 conflict by
// retrying against the existing id reported in the error body. A second
// conflict propagates as an update failure.
func (r *Reconciler) updateContact(ctx context.Context, contactID string, properties map[string]any) error {
	err := r.crm.UpdateContact(ctx, contactID, properties)
	if err == nil {
		r.log.Info("contact updated", zap.String("contact_id", contactID))
		return nil
	}
	if !hubspot.IsConflict(err) {
		return err
	}

	existingID := extractExistingID(hubspot.ErrorBody(err))
	if existingID == "" || existingID == contactID {
		return err
	}

	r.log.Info("conflict detected, retrying update with existing contact id",
		zap.String("contact_id", contactID),
		zap.String("existing_id", existingID),
	)
	if err := r.crm.UpdateContact(ctx, existingID, properties); err != nil {
		return err
	}
	r.log.Info("contact updated", zap.String("contact_id", existingID))
	return nil
}

// findContact searches for a contact by email or external premise id.
func (r *Reconciler) findContact(ctx context.Context, email, aexID string) (string, error) {
	resp, err := r.crm.SearchContacts(ctx, &hubspot.SearchRequest{
		FilterGroups: []hubspot.FilterGroup{
			hubspot.EqFilter("email", email),
			hubspot.EqFilter("aex_id", aexID),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// buildContactProperties assembles the contact payload from the customer
// profile, the first available premise address, and the sales-rep table.
func (r *Reconciler) buildContactProperties(premise *model.EnrichedPremise) map[string]any {
	customer := premise.Customer

	var address aex.Premise
	if p := premise.FirstPremise(); p != nil {
		address = *p
	}

	// First valid service-level updated_at across the service entries.
	var serviceStatusDate *int64
	for _, entry := range premise.Services {
		if entry.ServiceDetails == nil || entry.ServiceDetails.FullService == nil {
			continue
		}
		if ms := EpochMillis(entry.ServiceDetails.FullService.Service.UpdatedAt); ms != nil {
			serviceStatusDate = ms
			break
		}
	}

	properties := map[string]any{
		"firstname":           customer.FirstName,
		"lastname":            customer.LastName,
		"email":               customer.Email,
		"phone":               customer.MobileNumber,
		"address":             fmt.Sprintf("%s %s", address.StreetNumber, address.StreetName),
		"city":                address.City,
		"state":               address.Province,
		"zip":                 address.PostalCode,
		"aex_id":              premise.PremiseID,
		"latitude":            address.Lat,
		"longitude":           address.Lon,
		"service_status_date": serviceStatusDate,
		"sales_rep":           r.salesReps.Lookup(premise.SalesChannelID),
		"sales_rep_id":        premise.SalesChannelID,
		"service_status":      premise.Status,
	}
	return properties
}

// upsertTicket classifies the work order and creates or updates its ticket.
// Classification failures and CRM errors are logged; processing continues
// with the next work order.
func (r *Reconciler) upsertTicket(ctx context.Context, contactID string, premise *model.EnrichedPremise, workOrder aex.WorkOrder, stats *Stats) {
	classification := ClassifyStatus(workOrder.Status)
	if !classification.Known() {
		r.log.Error("unknown work order status, skipping ticket",
			zap.Int64("work_order_id", workOrder.ID),
			zap.String("status", workOrder.Status),
		)
		stats.Errors++
		return
	}

	workOrderID := strconv.FormatInt(workOrder.ID, 10)
	properties := r.buildTicketProperties(premise, workOrder, classification)

	existingID, err := r.findTicket(ctx, workOrderID)
	if err != nil {
		r.log.Error("ticket search failed",
			zap.String("work_order_id", workOrderID),
			zap.Error(err),
		)
		stats.Errors++
		return
	}

	if existingID != "" {
		if err := r.crm.UpdateTicket(ctx, existingID, properties); err != nil {
			r.log.Error("ticket update failed",
				zap.String("ticket_id", existingID),
				zap.Error(err),
			)
			stats.Errors++
			return
		}
		r.log.Info("ticket updated",
			zap.String("ticket_id", existingID),
			zap.String("work_order_id", workOrderID),
		)
		stats.TicketsUpdated++
		return
	}

	associations := []hubspot.Association{
		hubspot.ContactAssociation(contactID, ticketContactAssociationType),
	}
	ticket, err := r.crm.CreateTicket(ctx, properties, associations)
	if err != nil {
		r.log.Error("ticket create failed",
			zap.String("work_order_id", workOrderID),
			zap.Error(err),
		)
		stats.Errors++
		return
	}
	r.log.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("work_order_id", workOrderID),
		zap.String("contact_id", contactID),
	)
	stats.TicketsCreated++
}

// findTicket searches for a ticket by the custom work-order id property.
func (r *Reconciler) findTicket(ctx context.Context, workOrderID string) (string, error) {
	resp, err := r.crm.SearchTickets(ctx, &hubspot.SearchRequest{
		FilterGroups: []hubspot.FilterGroup{
			hubspot.EqFilter("work_order_id1", workOrderID),
		},
		Properties: []string{"hs_object_id"},
	})
	if err != nil {
		return "", err
	}
	if resp.Total == 0 || len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// buildTicketProperties assembles the ticket payload shared by the create
// and update paths.
func (r *Reconciler) buildTicketProperties(premise *model.EnrichedPremise, workOrder aex.WorkOrder, classification Classification) map[string]any {
	var address aex.Premise
	if p := premise.FirstPremise(); p != nil {
		address = *p
	}

	product := premise.FirstProduct()
	if product == "" {
		product = "Unknown Product"
	}

	return map[string]any{
		"subject":           fmt.Sprintf("%s %s - %s", address.StreetNumber, address.StreetName, strings.TrimSpace(workOrder.Status)),
		"content":           workOrder.Description,
		"hs_pipeline":       classification.PipelineID,
		"hs_pipeline_stage": classification.StageID,
		"aex_work_order_id": workOrder.ID,
		"work_order_id1":    workOrder.ID,
		"premise_id":        premise.PremiseID,
		"customer_id":       premise.Customer.ID,
		"createdate":        EpochMillis(workOrder.CreatedAt),
		"sales_rep":         r.salesReps.Lookup(premise.SalesChannelID),
		"sales_rep_id":      premise.SalesChannelID,
		"service_status":    premise.Status,
		"schedule_date":     EpochMillis(workOrder.ScheduleDate),
		"closed_date":       EpochMillis(workOrder.CompletedDate),
		"service_id":        premise.ID,
		"product":           product,
	}
}

// extractExistingID pulls the canonical object id out of a 409 conflict
// body, or returns "".
func extractExistingID(body string) string {
	match := existingIDPattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	return match[1]
}
