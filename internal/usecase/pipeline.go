package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pricelens/scraper/internal/domain"
)

// Stage marks how far an identifier progressed through a run.
type Stage int

const (
	StagePending Stage = iota
	StageSourceFetched
	StageSourceExtracted
	StageCandidatesFetched
	StageMatched
	StageRecorded
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageSourceFetched:
		return "source_fetched"
	case StageSourceExtracted:
		return "source_extracted"
	case StageCandidatesFetched:
		return "candidates_fetched"
	case StageMatched:
		return "matched"
	case StageRecorded:
		return "recorded"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Skip reasons reported in the run summary.
const (
	SkipUnknownIdentifier = "unknown_identifier"
	SkipFetchFailed       = "fetch_failed"
	SkipExtractionFailed  = "extraction_failed"
	SkipNoCandidates      = "no_candidates"
	SkipLowConfidence     = "low_confidence"
)

// Summary aggregates the outcome of a run.
type Summary struct {
	Processed int
	Matched   int
	Skipped   map[string]int
}

// SkippedTotal sums skips across all reasons.
func (s *Summary) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// PipelineConfig holds configuration for the comparison pipeline
type PipelineConfig struct {
	// ConfidenceFloor is passed through to the matcher.
	ConfidenceFloor int
	// RestartEvery is the browser restart cadence in identifiers.
	// Zero means the default; negative disables scheduled restarts.
	RestartEvery int
	// SimplifyQueries reduces search terms to brand plus sized tokens.
	SimplifyQueries    bool
	EnableDebugLogging bool
}

// Pipeline walks an identifier list through fetch, extract, search, match
// and record. One identifier's failure never stops the others.
type Pipeline struct {
	fetcher    domain.PageFetcher
	source     domain.SourceExtractor
	search     domain.CandidateExtractor
	results    domain.ResultRepository
	matcher    *MatcherService
	simplifier *QuerySimplifier

	restartEvery       int
	enableDebugLogging bool
	now                func() time.Time
}

// NewPipeline creates a new pipeline with dependencies
func NewPipeline(
	fetcher domain.PageFetcher,
	source domain.SourceExtractor,
	search domain.CandidateExtractor,
	results domain.ResultRepository,
	config PipelineConfig,
) *Pipeline {
	matcher := NewMatcherService(MatchConfig{
		ConfidenceFloor:    config.ConfidenceFloor,
		EnableDebugLogging: config.EnableDebugLogging,
	})
	simplifier := NewQuerySimplifier(config.SimplifyQueries, config.EnableDebugLogging)

	restartEvery := config.RestartEvery
	if restartEvery == 0 {
		restartEvery = 3 // Default cadence
	}

	return &Pipeline{
		fetcher:            fetcher,
		source:             source,
		search:             search,
		results:            results,
		matcher:            matcher,
		simplifier:         simplifier,
		restartEvery:       restartEvery,
		enableDebugLogging: config.EnableDebugLogging,
		now:                time.Now,
	}
}

// Run processes every identifier and persists whatever was collected, even
// when the run is cancelled partway. Only persistence failures are fatal.
func (p *Pipeline) Run(ctx context.Context, skus []string) (*Summary, error) {
	summary := &Summary{Skipped: make(map[string]int)}
	if len(skus) == 0 {
		log.Printf("[PIPELINE] No identifiers to process")
		return summary, nil
	}

	var products []domain.ListedProduct
	var records []domain.ComparisonRecord

	sinceRestart := 0
	for i, sku := range skus {
		if ctx.Err() != nil {
			log.Printf("[PIPELINE] Run cancelled after %d of %d identifiers", i, len(skus))
			break
		}

		// Comparison sites track automated sessions across searches, so
		// the browser gets a scheduled restart every few identifiers.
		if p.restartEvery > 0 && sinceRestart >= p.restartEvery {
			log.Printf("[PIPELINE] Restarting browser session to reset anti-bot tracking")
			if err := p.fetcher.Restart(ctx); err != nil {
				log.Printf("[PIPELINE] Browser restart failed, continuing with current session: %v", err)
			}
			sinceRestart = 0
		}

		summary.Processed++
		sinceRestart++

		product, record, skipReason := p.processIdentifier(ctx, sku)
		if product != nil {
			products = append(products, *product)
		}
		if record != nil {
			records = append(records, *record)
			summary.Matched++
		}
		if skipReason != "" {
			summary.Skipped[skipReason]++
		}
	}

	// Persist everything collected so far, including partial runs.
	if err := p.results.SaveProducts(ctx, products); err != nil {
		return summary, fmt.Errorf("saving products: %w", err)
	}
	if err := p.results.SaveComparisons(ctx, records); err != nil {
		return summary, fmt.Errorf("saving comparisons: %w", err)
	}

	log.Printf("[PIPELINE] Run complete: %d processed, %d matched, %d skipped",
		summary.Processed, summary.Matched, summary.SkippedTotal())
	return summary, nil
}

// processIdentifier walks a single identifier through the stages. It returns
// the extracted source listing (when extraction got that far), the comparison
// record (when a match was accepted) and the skip reason (when no record was
// produced).
func (p *Pipeline) processIdentifier(ctx context.Context, sku string) (*domain.ListedProduct, *domain.ComparisonRecord, string) {
	stage := StagePending
	p.traceStage(sku, stage)

	productURL, err := p.source.ProductURL(sku)
	if err != nil {
		return nil, nil, p.failIdentifier(sku, SkipUnknownIdentifier, err)
	}

	html, err := p.fetcher.Fetch(ctx, productURL, domain.FetchOptions{})
	if err != nil {
		return nil, nil, p.failIdentifier(sku, SkipFetchFailed, err)
	}
	stage = StageSourceFetched
	p.traceStage(sku, stage)

	product, err := p.source.ExtractProduct(html, sku)
	if err != nil {
		return nil, nil, p.failIdentifier(sku, SkipExtractionFailed, err)
	}
	product.Date = p.now().Format(domain.DateLayout)
	stage = StageSourceExtracted
	p.traceStage(sku, stage)

	// The search term may be simplified; scoring always uses the full name.
	query := p.simplifier.SimplifyQuery(product.Name)
	searchHTML, err := p.fetcher.Fetch(ctx, p.search.SearchURL(query), domain.FetchOptions{
		RenderScroll:  true,
		FreshIdentity: true,
	})
	if err != nil {
		return &product, nil, p.failIdentifier(sku, SkipFetchFailed, err)
	}
	stage = StageCandidatesFetched
	p.traceStage(sku, stage)

	candidates, err := p.search.ExtractCandidates(searchHTML)
	if err != nil {
		return &product, nil, p.failIdentifier(sku, SkipExtractionFailed, err)
	}

	match, err := p.matcher.FindBestMatch(ctx, product.Name, candidates)
	if err != nil {
		if errors.Is(err, domain.ErrLowConfidence) && match != nil {
			err = fmt.Errorf("best candidate %q scored %d: %w", match.Candidate.Name, match.Score, err)
			return &product, nil, p.failIdentifier(sku, SkipLowConfidence, err)
		}
		return &product, nil, p.failIdentifier(sku, SkipNoCandidates, err)
	}
	stage = StageMatched
	p.traceStage(sku, stage)

	record := domain.NewComparisonRecord(product, *match)
	stage = StageRecorded
	p.traceStage(sku, stage)
	log.Printf("[PIPELINE] SKU %s recorded: %q matched %q (score %d, difference %s)",
		sku, product.Name, match.Candidate.Name, match.Score, record.Difference)

	return &product, &record, ""
}

// failIdentifier logs the terminal state for a skipped identifier and hands
// back the reason for the summary.
func (p *Pipeline) failIdentifier(sku, reason string, err error) string {
	log.Printf("[PIPELINE] SKU %s %s (%s): %v", sku, StageFailed, reason, err)
	return reason
}

func (p *Pipeline) traceStage(sku string, stage Stage) {
	if p.enableDebugLogging {
		log.Printf("[PIPELINE] SKU %s stage: %s", sku, stage)
	}
}
