package models

// ResolutionStage names the resolver strategy that produced (or failed to produce) a code
type ResolutionStage string

const (
	StageProvided             ResolutionStage = "provided"
	StageItemName             ResolutionStage = "item_name"
	StageItemNamePartial      ResolutionStage = "item_name_partial"
	StageHSDescription        ResolutionStage = "hs_description"
	StageHSDescriptionPartial ResolutionStage = "hs_description_partial"
	StageUnresolved           ResolutionStage = "unresolved"
)

// Resolution is the outcome of mapping a description to an HS code
type Resolution struct {
	Code     string          `json:"hsCode,omitempty"`
	Stage    ResolutionStage `json:"stage"`
	Note     string          `json:"note,omitempty"`
	Evidence string          `json:"-"` // top semantic chunks, only set when unresolved
	Reason   string          `json:"reason,omitempty"`
	Query    string          `json:"queriedDescription,omitempty"`
}

// Resolved reports whether a code was found
func (r Resolution) Resolved() bool {
	return r.Code != ""
}

// ComplianceResult is the policy verdict for a single HS code.
// Exists=false always implies Allowed=false.
type ComplianceResult struct {
	Exists      bool   `json:"exists"`
	Allowed     bool   `json:"allowed"`
	Policy      string `json:"policy,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ItemQuery carries one line item into a jurisdiction check
type ItemQuery struct {
	HSCode          string `json:"hsCode,omitempty"`
	ItemName        string `json:"itemName,omitempty"`
	ItemDescription string `json:"itemDescription,omitempty"`
	ItemWeight      string `json:"itemWeight,omitempty"`
	Material        string `json:"material,omitempty"`
	Manufacturer    string `json:"itemManufacturer,omitempty"`
}

// Verdict is a jurisdiction's answer for one item in one direction
type Verdict struct {
	Status             bool   `json:"status"`
	Allowed            bool   `json:"allowed"`
	HSCode             string `json:"hsCode,omitempty"`
	Policy             string `json:"policy,omitempty"`
	Description        string `json:"description,omitempty"`
	Conditions         string `json:"conditions,omitempty"`
	Note               string `json:"note,omitempty"`
	Reason             string `json:"reason,omitempty"`
	QueriedHSCode      string `json:"queriedHsCode,omitempty"`
	QueriedItemName    string `json:"queriedItemName,omitempty"`
	QueriedDescription string `json:"queriedDescription,omitempty"`
}
