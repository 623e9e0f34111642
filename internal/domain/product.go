package domain

// DateLayout is the capture-date format used in persisted records.
const DateLayout = "2006-01-02"

// ListedProduct represents a product listing extracted from the source
// retailer's product page.
type ListedProduct struct {
	SKU   string `json:"SKU"`
	Name  string `json:"Product Name"`
	Price Price  `json:"Price"`
	Date  string `json:"Date"` // capture date, YYYY-MM-DD
}

// CandidateProduct represents one result tile from a comparison retailer's
// search page.
type CandidateProduct struct {
	Name  string `json:"name"`
	Price Price  `json:"price"`
	URL   string `json:"url"`
}

// MatchResult represents the outcome of matching a source product against
// search candidates.
type MatchResult struct {
	Candidate CandidateProduct `json:"candidate"`
	Score     int              `json:"score"` // similarity 0-100
}

// ComparisonRecord pairs a source listing with the comparison listing it
// matched. JSON keys follow the report format downstream consumers parse.
type ComparisonRecord struct {
	SKU          string `json:"SKU"`
	SourceName   string `json:"Product Name The Reject Shop"`
	SourcePrice  Price  `json:"Price_RejectShop"`
	MatchedName  string `json:"Product Name Woolworths"`
	MatchedPrice Price  `json:"Price_Woolworths"`
	Difference   string `json:"Price Difference"`
	Date         string `json:"Date"`
}

// NewComparisonRecord builds a comparison record from a source listing and
// the candidate it matched. The record carries the source listing's capture
// date since both prices were observed in the same run.
func NewComparisonRecord(source ListedProduct, match MatchResult) ComparisonRecord {
	return ComparisonRecord{
		SKU:          source.SKU,
		SourceName:   source.Name,
		SourcePrice:  source.Price,
		MatchedName:  match.Candidate.Name,
		MatchedPrice: match.Candidate.Price,
		Difference:   AbsDiff(source.Price, match.Candidate.Price).String(),
		Date:         source.Date,
	}
}
