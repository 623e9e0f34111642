package woolworths

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/scraper/internal/domain"
)

const (
	searchPath    = "/shop/search/products"
	tileSelector  = "wc-product-tile"
	priceSelector = ".product-tile-price .primary"
)

// Scraper builds Woolworths search URLs and extracts candidate tiles from
// rendered search result pages.
type Scraper struct {
	baseURL *url.URL
}

// NewScraper creates a scraper rooted at the storefront base URL.
func NewScraper(baseURL string) (*Scraper, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	return &Scraper{baseURL: base}, nil
}

// SearchURL builds the product search URL for a query.
func (s *Scraper) SearchURL(query string) string {
	u := *s.baseURL
	u.Path = searchPath
	u.RawQuery = url.Values{"searchTerm": {query}}.Encode()
	return u.String()
}

// ExtractCandidates walks the product tiles in document order. Tiles missing
// a name, link or usable price are dropped; a page without tiles simply
// yields no candidates.
func (s *Scraper) ExtractCandidates(html string) ([]domain.CandidateProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &domain.ExtractionError{Field: "document", Err: err}
	}

	tiles := doc.Find(tileSelector)

	var candidates []domain.CandidateProduct
	tiles.Each(func(i int, tile *goquery.Selection) {
		if candidate, ok := s.extractTile(i, tile); ok {
			candidates = append(candidates, candidate)
		}
	})

	log.Printf("[WOOLWORTHS] Extracted %d usable candidates from %d tiles", len(candidates), tiles.Length())
	return candidates, nil
}

// extractTile reads one product tile. The name comes from the tile's first
// link, falling back to the image title the way some tiles render it.
func (s *Scraper) extractTile(i int, tile *goquery.Selection) (domain.CandidateProduct, bool) {
	link := tile.Find("a").First()
	if link.Length() == 0 {
		log.Printf("[WOOLWORTHS] Tile %d: no link element", i)
		return domain.CandidateProduct{}, false
	}

	name := strings.TrimSpace(link.Text())
	if name == "" {
		name = strings.TrimSpace(link.Find("img").First().AttrOr("title", ""))
	}
	href := link.AttrOr("href", "")
	priceText := strings.TrimSpace(tile.Find(priceSelector).First().Text())

	if name == "" || href == "" || priceText == "" {
		log.Printf("[WOOLWORTHS] Tile %d missing fields (name: %q, href: %q, price: %q)", i, name, href, priceText)
		return domain.CandidateProduct{}, false
	}

	price, err := domain.ParsePrice(priceText)
	if err != nil {
		log.Printf("[WOOLWORTHS] Tile %d: %v", i, err)
		return domain.CandidateProduct{}, false
	}

	return domain.CandidateProduct{
		Name:  name,
		Price: price,
		URL:   s.resolveURL(href),
	}, true
}

// resolveURL joins a tile's relative href onto the storefront base.
func (s *Scraper) resolveURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return s.baseURL.ResolveReference(ref).String()
}
