package models

// NotSpecified is rendered for optional item and shipment fields that were left empty
const NotSpecified = "Not specified"

// Address is a shipment endpoint; only the country drives compliance
type Address struct {
	Country string `json:"country"`
}

// Item is a single declared line item
type Item struct {
	ItemName         string `json:"itemName"`
	ItemManufacturer string `json:"itemManufacturer,omitempty"`
	Material         string `json:"material,omitempty"`
	ItemWeight       string `json:"itemWeight,omitempty"`
	HSCode           string `json:"hsCode,omitempty"`
}

// Box groups items physically; evaluation flattens boxes in order
type Box struct {
	Items []Item `json:"items"`
}

// Shipment is the request evaluated by the orchestrator
type Shipment struct {
	OrganizationName   string  `json:"organizationName"`
	SourceAddress      Address `json:"sourceAddress"`
	DestinationAddress Address `json:"destinationAddress"`
	ShipmentDate       string  `json:"shipmentDate"`
	Boxes              []Box   `json:"boxes"`
}

// Items returns every line item across all boxes in declaration order
func (s Shipment) Items() []Item {
	var items []Item
	for _, box := range s.Boxes {
		items = append(items, box.Items...)
	}
	return items
}

// ItemReport accumulates the outcome of each stage for one line item
type ItemReport struct {
	ItemName          string `json:"itemName"`
	ItemManufacturer  string `json:"itemManufacturer"`
	Material          string `json:"material"`
	ItemWeight        string `json:"itemWeight"`
	HSCode            string `json:"hsCode,omitempty"`
	HSCodeNote        string `json:"hsCodeNote,omitempty"`
	Status            bool   `json:"status"`
	ExportStatus      bool   `json:"exportStatus"`
	ImportStatus      bool   `json:"importStatus"`
	Reason            string `json:"reason,omitempty"`
	ExportReason      string `json:"exportReason,omitempty"`
	ExportPolicy      string `json:"exportPolicy,omitempty"`
	ExportDescription string `json:"exportDescription,omitempty"`
	ExportConditions  string `json:"exportConditions,omitempty"`
	ImportReason      string `json:"importReason,omitempty"`
	ImportPolicy      string `json:"importPolicy,omitempty"`
	ImportDescription string `json:"importDescription,omitempty"`
	ImportNote        string `json:"importNote,omitempty"`
	Message           string `json:"message,omitempty"`
}

// ShipmentSummary is derived from the item reports after every evaluation
type ShipmentSummary struct {
	OrganizationName   string `json:"organizationName"`
	SourceCountry      string `json:"sourceCountry"`
	DestinationCountry string `json:"destinationCountry"`
	ShipmentDate       string `json:"shipmentDate"`
	TotalItems         int    `json:"totalItems"`
	ApprovedItems      int    `json:"approvedItems"`
	RejectedItems      int    `json:"rejectedItems"`
}

// ShipmentResult is the full response for a shipment evaluation
type ShipmentResult struct {
	Status  bool            `json:"status"`
	Summary ShipmentSummary `json:"summary"`
	Report  []ItemReport    `json:"report"`
}
