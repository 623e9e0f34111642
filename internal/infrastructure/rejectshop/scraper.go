package rejectshop

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/scraper/internal/domain"
)

// Selectors pin the stable parts of the product page markup. The site also
// attaches build-specific jsx-* classes; those churn between deploys and are
// deliberately not matched.
const (
	titleSelector = `h1[data-testid="product-title"]`
	skuSelector   = "p.pdp-sku"
	priceSelector = "div.product-price"
)

// Scraper resolves SKUs against The Reject Shop catalog and extracts
// listings from rendered product pages.
type Scraper struct {
	catalog map[string]string
}

// NewScraper creates a scraper over a SKU to product page URL catalog.
func NewScraper(catalog map[string]string) *Scraper {
	return &Scraper{catalog: catalog}
}

// ProductURL resolves a SKU to its product page URL.
func (s *Scraper) ProductURL(sku string) (string, error) {
	url, ok := s.catalog[sku]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownIdentifier, sku)
	}
	return url, nil
}

// ExtractProduct parses a product page into a listing. A listing is only
// returned when both the title and a cleanly parseable price are present; a
// guessed price would poison every comparison downstream.
func (s *Scraper) ExtractProduct(html, sku string) (domain.ListedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.ListedProduct{}, &domain.ExtractionError{Field: "document", Err: err}
	}

	title := doc.Find(titleSelector).First()
	if title.Length() == 0 {
		return domain.ListedProduct{}, &domain.ExtractionError{
			Field: "product name",
			Err:   fmt.Errorf("no %s element", titleSelector),
		}
	}
	name := strings.TrimSpace(title.Text())
	if name == "" {
		return domain.ListedProduct{}, &domain.ExtractionError{
			Field: "product name",
			Err:   fmt.Errorf("empty %s element", titleSelector),
		}
	}

	priceNode := doc.Find(priceSelector).First()
	if priceNode.Length() == 0 {
		return domain.ListedProduct{}, &domain.ExtractionError{
			Field: "price",
			Err:   fmt.Errorf("no %s element", priceSelector),
		}
	}
	// The price renders as sibling spans ("$", "3", ".45"); squash the
	// whitespace between them before parsing.
	price, err := domain.ParsePrice(squashWhitespace(priceNode.Text()))
	if err != nil {
		return domain.ListedProduct{}, &domain.ExtractionError{Field: "price", Err: err}
	}

	// The page prints its own SKU. A mismatch usually means the catalog URL
	// redirected somewhere else; the input SKU stays authoritative.
	if pageSKU := extractPageSKU(doc); pageSKU != "" && pageSKU != sku {
		log.Printf("[REJECTSHOP] SKU %s: page reports SKU %s", sku, pageSKU)
	}

	return domain.ListedProduct{
		SKU:   sku,
		Name:  name,
		Price: price,
	}, nil
}

// extractPageSKU pulls the SKU printed on the page, e.g. "SKU: 30061292".
func extractPageSKU(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(skuSelector).First().Text())
	if text == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(text, "SKU:"))
}

func squashWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
