package internal

type CandidateSource string

const (
	SourceLabels    CandidateSource = "labels"
	SourceJSON      CandidateSource = "json"
	SourceHTMLTable CandidateSource = "html_table"
	SourceXLSX      CandidateSource = "xlsx"
	SourcePDF       CandidateSource = "pdf"
	SourceEmailText CandidateSource = "email_text"
)

// RawCandidate is one label as produced by intake. Quantity is always >= 1.
type RawCandidate struct {
	RawCode     string `json:"rawCode"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Quantity    int    `json:"quantity"`
}

// LabelRecord is a RawCandidate together with where it was found.
type LabelRecord struct {
	LineNo  int
	Source  CandidateSource
	RawLine string
	RawCandidate
	Meta map[string]any
}

type CabinetType string

const (
	CabinetBase      CabinetType = "Base"
	CabinetWall      CabinetType = "Wall"
	CabinetTall      CabinetType = "Tall"
	CabinetVanity    CabinetType = "Vanity"
	CabinetAccessory CabinetType = "Accessory"
	CabinetHardware  CabinetType = "Hardware"
	CabinetUnknown   CabinetType = "Unknown"
)

type CabinetDimensions struct {
	Type   CabinetType `json:"type"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Depth  float64     `json:"depth"`
	Code   string      `json:"code"`
}

type CatalogEntry struct {
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
}

// LineTable maps a lookup key (normalized code or uppercase raw SKU) to its entry.
type LineTable map[string]CatalogEntry

// PricingTable holds one LineTable per manufacturer line id.
type PricingTable map[string]LineTable

type LineTier string

const (
	TierBudget   LineTier = "Budget"
	TierMidRange LineTier = "Mid-Range"
	TierPremium  LineTier = "Premium"
)

type LineRates struct {
	BasePerFoot      float64 `json:"basePerFoot"`
	WallPerFoot      float64 `json:"wallPerFoot"`
	TallPerUnit      float64 `json:"tallPerUnit"`
	AccessoryPerFoot float64 `json:"accessoryPerFoot"`
}

type ManufacturerLine struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Tier           LineTier   `json:"tier"`
	Description    string     `json:"description,omitempty"`
	Finish         string     `json:"finish,omitempty"`
	Multiplier     float64    `json:"multiplier"`
	FinishPremium  float64    `json:"finishPremium"`
	ShippingFactor float64    `json:"shippingFactor"`
	Rates          *LineRates `json:"rates,omitempty"`
}

type MatchType string

const (
	MatchExact            MatchType = "exact"
	MatchExactRaw         MatchType = "exact_raw"
	MatchVariant          MatchType = "variant"
	MatchCategoryFallback MatchType = "category_fallback"
	MatchNearestSize      MatchType = "nearest_size"
	MatchFuzzyPrefix      MatchType = "fuzzy_prefix"
	MatchSizeBased        MatchType = "size_based"
	MatchNone             MatchType = "none"
)

type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified"
	StatusEstimate VerificationStatus = "estimate"
	StatusMissing  VerificationStatus = "missing"
)

type PricingMethod string

const (
	MethodCatalog      PricingMethod = "catalog"
	MethodLinearFoot   PricingMethod = "linear_foot"
	MethodPerUnit      PricingMethod = "per_unit"
	MethodFlatEstimate PricingMethod = "flat_estimate"
	MethodNone         PricingMethod = "none"
)

type MatchResult struct {
	Entry      CatalogEntry `json:"entry"`
	MatchType  MatchType    `json:"matchType"`
	MatchedKey string       `json:"matchedKey"`
}

type VerificationProof struct {
	MatchType          MatchType     `json:"matchType"`
	MatchedCode        string        `json:"matchedCode"`
	MatchedDimensions  string        `json:"matchedDimensions,omitempty"`
	PricingMethod      PricingMethod `json:"pricingMethod"`
	CalculationDetails string        `json:"calculationDetails"`
	IsQuoted           bool          `json:"isQuoted"`
}

// ConsolidatedItem is one distinct normalized code with its summed quantity.
type ConsolidatedItem struct {
	RawCandidate
	SKU            string `json:"sku"`
	NormalizedCode string `json:"normalizedCode"`
}

type PricedBOMItem struct {
	RawCandidate
	SKU                string             `json:"sku"`
	NormalizedCode     string             `json:"normalizedCode"`
	Dimensions         CabinetDimensions  `json:"dimensions"`
	UnitPrice          float64            `json:"unitPrice"`
	TotalPrice         float64            `json:"totalPrice"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerificationProof  VerificationProof  `json:"verificationProof"`
}

type VerificationStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Estimate int `json:"estimate"`
	Missing  int `json:"missing"`
}

type LineComparison struct {
	Line       ManufacturerLine  `json:"line"`
	Items      []PricedBOMItem   `json:"items"`
	Stats      VerificationStats `json:"stats"`
	TotalPrice float64           `json:"totalPrice"`
}

type QuoteSummary struct {
	Subtotal      float64 `json:"subtotal"`
	FinishPremium float64 `json:"finishPremium"`
	Shipping      float64 `json:"shipping"`
	Surcharge     float64 `json:"surcharge"`
	Tax           float64 `json:"tax"`
	GrandTotal    float64 `json:"grandTotal"`
	IncludedItems int     `json:"includedItems"`
	ExcludedItems int     `json:"excludedItems"`
}

type ProjectInfo struct {
	DealerName    string
	DealerAddress string
	DealerPhone   string
	ClientName    string
	ProjectName   string
	Address       string
	Date          string
	QuoteNumber   string
}

type QuoteRequestRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
