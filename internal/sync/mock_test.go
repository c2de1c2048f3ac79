package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sells-group/aexsync/pkg/aex"
	"github.com/sells-group/aexsync/pkg/hubspot"
)

// fakeAEX is a hand-rolled aex.Client for stage tests.
type fakeAEX struct {
	pages     [][]aex.Service
	pageCalls int
	pageErrAt int // 1-based page index that fails; 0 = never

	services     map[int64]*aex.Service
	serviceErrs  map[int64]error
	fullServices map[int64]*aex.ServiceDetail
	fullErrs     map[int64]error
	workOrders   map[int64]*aex.WorkOrderPage
	workOrderErr map[int64]error
	customers    map[int64]*aex.Customer
	customerErrs map[int64]error
	custSvcErrs  map[int64]error

	detailCalls int
}

func (f *fakeAEX) ListServices(ctx context.Context, updatedAfter string, page int) (*aex.ServicePage, error) {
	f.pageCalls++
	if f.pageErrAt > 0 && page == f.pageErrAt {
		return nil, fmt.Errorf("aex: status 500")
	}
	if page < 1 || page > len(f.pages) {
		return &aex.ServicePage{Items: []aex.Service{}}, nil
	}
	return &aex.ServicePage{Items: f.pages[page-1]}, nil
}

func (f *fakeAEX) GetService(ctx context.Context, id int64) (*aex.Service, error) {
	f.detailCalls++
	if err := f.serviceErrs[id]; err != nil {
		return nil, err
	}
	if svc, ok := f.services[id]; ok {
		return svc, nil
	}
	return &aex.Service{ID: id, Status: "Active"}, nil
}

func (f *fakeAEX) GetFullService(ctx context.Context, id int64) (*aex.ServiceDetail, error) {
	if err := f.fullErrs[id]; err != nil {
		return nil, err
	}
	if d, ok := f.fullServices[id]; ok {
		return d, nil
	}
	return &aex.ServiceDetail{}, nil
}

func (f *fakeAEX) ListWorkOrders(ctx context.Context, serviceID int64) (*aex.WorkOrderPage, error) {
	if err := f.workOrderErr[serviceID]; err != nil {
		return nil, err
	}
	if wo, ok := f.workOrders[serviceID]; ok {
		return wo, nil
	}
	return &aex.WorkOrderPage{}, nil
}

func (f *fakeAEX) GetCustomer(ctx context.Context, id int64) (*aex.Customer, error) {
	if err := f.customerErrs[id]; err != nil {
		return nil, err
	}
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return &aex.Customer{ID: id}, nil
}

func (f *fakeAEX) ListCustomerServices(ctx context.Context, customerID int64) (*aex.ServicePage, error) {
	if err := f.custSvcErrs[customerID]; err != nil {
		return nil, err
	}
	return &aex.ServicePage{}, nil
}

func (f *fakeAEX) ListPremises(ctx context.Context, customerID int64) (*aex.PremisePage, error) {
	return &aex.PremisePage{}, nil
}

// fakeCRM is a hand-rolled hubspot.Client that mimics search-before-write
// semantics: created contacts and tickets become findable by later searches.
type fakeCRM struct {
	nextID int

	contactsByKey    map[string]string // email / aex_id -> contact id
	contactSearches  int
	contactCreates   []map[string]any
	contactUpdates   []string // target ids in call order
	updateContactErr map[string]error // consumed on first update of that id

	ticketsByWorkOrder map[string]string
	ticketSearches     int
	ticketCreates      []map[string]any
	ticketAssocs       [][]hubspot.Association
	ticketUpdates      []string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		contactsByKey:      map[string]string{},
		updateContactErr:   map[string]error{},
		ticketsByWorkOrder: map[string]string{},
	}
}

func (f *fakeCRM) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func searchValues(req *hubspot.SearchRequest) []string {
	var values []string
	for _, group := range req.FilterGroups {
		for _, filter := range group.Filters {
			values = append(values, filter.Value)
		}
	}
	return values
}

func (f *fakeCRM) SearchContacts(ctx context.Context, req *hubspot.SearchRequest) (*hubspot.SearchResponse, error) {
	f.contactSearches++
	for _, v := range searchValues(req) {
		if id, ok := f.contactsByKey[v]; ok {
			return &hubspot.SearchResponse{Total: 1, Results: []hubspot.Object{{ID: id}}}, nil
		}
	}
	return &hubspot.SearchResponse{}, nil
}

func (f *fakeCRM) CreateContact(ctx context.Context, properties map[string]any) (*hubspot.Object, error) {
	f.contactCreates = append(f.contactCreates, properties)
	id := f.newID()
	if email, ok := properties["email"].(string); ok && email != "" {
		f.contactsByKey[email] = id
	}
	f.contactsByKey[fmt.Sprint(properties["aex_id"])] = id
	return &hubspot.Object{ID: id}, nil
}

func (f *fakeCRM) UpdateContact(ctx context.Context, id string, properties map[string]any) error {
	f.contactUpdates = append(f.contactUpdates, id)
	if err, ok := f.updateContactErr[id]; ok {
		delete(f.updateContactErr, id)
		return err
	}
	return nil
}

func (f *fakeCRM) SearchTickets(ctx context.Context, req *hubspot.SearchRequest) (*hubspot.SearchResponse, error) {
	f.ticketSearches++
	for _, v := range searchValues(req) {
		if id, ok := f.ticketsByWorkOrder[v]; ok {
			return &hubspot.SearchResponse{Total: 1, Results: []hubspot.Object{{ID: id}}}, nil
		}
	}
	return &hubspot.SearchResponse{}, nil
}

func (f *fakeCRM) CreateTicket(ctx context.Context, properties map[string]any, associations []hubspot.Association) (*hubspot.Object, error) {
	f.ticketCreates = append(f.ticketCreates, properties)
	f.ticketAssocs = append(f.ticketAssocs, associations)
	id := f.newID()
	f.ticketsByWorkOrder[fmt.Sprint(properties["work_order_id1"])] = id
	return &hubspot.Object{ID: id}, nil
}

func (f *fakeCRM) UpdateTicket(ctx context.Context, id string, properties map[string]any) error {
	f.ticketUpdates = append(f.ticketUpdates, id)
	return nil
}
