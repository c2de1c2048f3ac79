package aex

// Service is a service record as returned by the /services listing and
// detail endpoints. The listing omits status; the detail endpoint carries it.
type Service struct {
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
	Status         string `json:"status,omitempty"`
}

// ServicePage is the paginated envelope for service listings.
type ServicePage struct {
	Items []Service `json:"items"`
}

// ServiceDetail is the /services/{id}/full response envelope.
type ServiceDetail struct {
	FullService *FullService `json:"full_service"`
}

// FullService nests the premise, service metadata, and product for a service.
type FullService struct {
	Premise    Premise     `json:"premise"`
	Service    ServiceMeta `json:"service"`
	ISPProduct ISPProduct  `json:"isp_product"`
}

// Premise is a physical service location.
type Premise struct {
	ID           int64   `json:"id"`
	StreetNumber string  `json:"street_number"`
	StreetName   string  `json:"street_name"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	PostalCode   string  `json:"postal_code"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

// PremisePage is the paginated envelope for premise listings.
type PremisePage struct {
	Items []Premise `json:"items"`
}

// ServiceMeta carries the service-level status fields inside a FullService.
type ServiceMeta struct {
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// ISPProduct identifies the provisioned product.
type ISPProduct struct {
	Name string `json:"name"`
}

// WorkOrder is a scheduled task against a service (install, repair,
// cancellation, ...). Status drives the CRM pipeline classification.
type WorkOrder struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	ScheduleDate  string `json:"schedule_date"`
	CompletedDate string `json:"completed_date"`
}

// WorkOrderPage is the items envelope for work-order listings.
type WorkOrderPage struct {
	Items []WorkOrder `json:"items"`
}

// Customer is an upstream customer profile.
type Customer struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
}
