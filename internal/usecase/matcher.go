package usecase

import (
	"context"
	"log"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pricelens/scraper/internal/domain"
)

// Scorer computes a 0-100 similarity score between two product names.
type Scorer func(a, b string) int

// MatchConfig holds configuration for the matcher service
type MatchConfig struct {
	// ConfidenceFloor is the score a winner must strictly exceed. A best
	// score equal to the floor is still rejected.
	ConfidenceFloor    int
	EnableDebugLogging bool
	// Scorer overrides the default weighted-ratio scorer. Tests use it to
	// pin exact scores.
	Scorer Scorer
}

// MatcherService selects the comparison listing most similar to a source product
type MatcherService struct {
	confidenceFloor    int
	enableDebugLogging bool
	scorer             Scorer
}

// NewMatcherService creates a new matcher service with the given configuration
func NewMatcherService(config MatchConfig) *MatcherService {
	floor := config.ConfidenceFloor
	if floor <= 0 {
		floor = 60 // Default floor
	}

	scorer := config.Scorer
	if scorer == nil {
		scorer = fuzzy.WRatio
	}

	return &MatcherService{
		confidenceFloor:    floor,
		enableDebugLogging: config.EnableDebugLogging,
		scorer:             scorer,
	}
}

// FindBestMatch scores every candidate against the source product name and
// returns the highest scorer. Ties keep the earliest candidate in results
// order. The winner must strictly exceed the confidence floor; when it does
// not, the best candidate is returned alongside ErrLowConfidence so callers
// can log the near miss.
func (s *MatcherService) FindBestMatch(
	ctx context.Context,
	productName string,
	candidates []domain.CandidateProduct,
) (*domain.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	var best *domain.MatchResult
	highestScore := -1

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		score := s.scorer(productName, candidate.Name)

		if s.enableDebugLogging {
			log.Printf("[MATCH] Candidate: %q | Score: %d", candidate.Name, score)
		}

		if score > highestScore {
			highestScore = score
			best = &domain.MatchResult{
				Candidate: candidate,
				Score:     score,
			}
		}
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Best match: %q (score: %d, floor: %d)", best.Candidate.Name, best.Score, s.confidenceFloor)
	}

	if best.Score <= s.confidenceFloor {
		return best, domain.ErrLowConfidence
	}

	return best, nil
}
