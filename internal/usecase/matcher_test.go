package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/pricelens/scraper/internal/domain"
)

// scoreByName builds a scorer that looks up fixed scores by candidate name,
// so boundary tests are not at the mercy of the real ratio algorithm.
func scoreByName(scores map[string]int) Scorer {
	return func(_, candidate string) int {
		return scores[candidate]
	}
}

func TestNewMatcherService(t *testing.T) {
	t.Run("creates service with provided floor", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{ConfidenceFloor: 75})
		if svc.confidenceFloor != 75 {
			t.Errorf("confidenceFloor = %v, want 75", svc.confidenceFloor)
		}
	})

	t.Run("uses default floor when zero", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{ConfidenceFloor: 0})
		if svc.confidenceFloor != 60 {
			t.Errorf("confidenceFloor = %v, want 60 (default)", svc.confidenceFloor)
		}
	})

	t.Run("uses default floor when negative", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{ConfidenceFloor: -5})
		if svc.confidenceFloor != 60 {
			t.Errorf("confidenceFloor = %v, want 60 (default)", svc.confidenceFloor)
		}
	})

	t.Run("uses weighted ratio scorer by default", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{})
		if svc.scorer == nil {
			t.Fatal("scorer = nil, want default scorer")
		}
		if got := svc.scorer("whiskas jellymeat 400g", "whiskas jellymeat 400g"); got != 100 {
			t.Errorf("scorer on identical strings = %v, want 100", got)
		}
	})
}

func TestFindBestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for empty candidate list", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{})
		_, err := svc.FindBestMatch(ctx, "Whiskas Jellymeat 400g", nil)
		if !errors.Is(err, domain.ErrNoCandidates) {
			t.Errorf("error = %v, want ErrNoCandidates", err)
		}
	})

	t.Run("selects most similar candidate", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{})
		candidates := []domain.CandidateProduct{
			{Name: "Whiskas Oh So Fishy Ocean Platter 400g", Price: 3.2},
			{Name: "Whiskas Jellymeat Cat Food Can 400g", Price: 2.5},
			{Name: "Dine Tuna Morsels 85g", Price: 1.7},
		}

		result, err := svc.FindBestMatch(ctx, "Whiskas Jellymeat 400g", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Candidate.Name != "Whiskas Jellymeat Cat Food Can 400g" {
			t.Errorf("Candidate.Name = %q, want the jellymeat listing", result.Candidate.Name)
		}
		if result.Score <= 60 {
			t.Errorf("Score = %v, want > 60", result.Score)
		}
	})

	t.Run("returns low confidence error for poor match", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{})
		candidates := []domain.CandidateProduct{
			{Name: "Garden Hose Fitting 12mm", Price: 4},
		}

		result, err := svc.FindBestMatch(ctx, "Twisties Party Bag Cheese 270g", candidates)
		if !errors.Is(err, domain.ErrLowConfidence) {
			t.Errorf("error = %v, want ErrLowConfidence", err)
		}
		if result == nil {
			t.Error("expected the best candidate to be returned even with low confidence")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		candidates := []domain.CandidateProduct{
			{Name: "Whiskas Jellymeat Cat Food Can 400g", Price: 2.5},
		}
		_, err := svc.FindBestMatch(ctx, "Whiskas Jellymeat 400g", candidates)
		if err == nil {
			t.Error("expected context cancellation error")
		}
	})
}

func TestFindBestMatchFloorBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("score equal to floor is rejected", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{
			ConfidenceFloor: 60,
			Scorer:          scoreByName(map[string]int{"Quilton Tissues 95pk": 60}),
		})
		candidates := []domain.CandidateProduct{
			{Name: "Quilton Tissues 95pk", Price: 2.8},
		}

		result, err := svc.FindBestMatch(ctx, "Quilton Aloe Vera Tissue 3ply 95pk", candidates)
		if !errors.Is(err, domain.ErrLowConfidence) {
			t.Errorf("error = %v, want ErrLowConfidence at the floor", err)
		}
		if result == nil || result.Score != 60 {
			t.Fatalf("result = %+v, want best candidate with score 60", result)
		}
	})

	t.Run("score one above floor is accepted", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{
			ConfidenceFloor: 60,
			Scorer:          scoreByName(map[string]int{"Quilton Tissues 95pk": 61}),
		})
		candidates := []domain.CandidateProduct{
			{Name: "Quilton Tissues 95pk", Price: 2.8},
		}

		result, err := svc.FindBestMatch(ctx, "Quilton Aloe Vera Tissue 3ply 95pk", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Score != 61 {
			t.Errorf("Score = %v, want 61", result.Score)
		}
	})

	t.Run("tie keeps the earlier candidate", func(t *testing.T) {
		svc := NewMatcherService(MatchConfig{
			ConfidenceFloor: 60,
			Scorer: scoreByName(map[string]int{
				"Jif Cream Cleaner Lemon 500ml":    88,
				"Jif Surface Cleaner Lemon 500ml":  88,
				"Jif Cleaning Spray Regular 500ml": 70,
			}),
		})
		candidates := []domain.CandidateProduct{
			{Name: "Jif Cream Cleaner Lemon 500ml", Price: 3.5},
			{Name: "Jif Surface Cleaner Lemon 500ml", Price: 3.7},
			{Name: "Jif Cleaning Spray Regular 500ml", Price: 3},
		}

		result, err := svc.FindBestMatch(ctx, "Jif Surface Cleaner Lemon Scent 500ml", candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Candidate.Name != "Jif Cream Cleaner Lemon 500ml" {
			t.Errorf("Candidate.Name = %q, want the first of the tied candidates", result.Candidate.Name)
		}
	})
}

func TestFindBestMatchRealisticListings(t *testing.T) {
	svc := NewMatcherService(MatchConfig{})
	ctx := context.Background()

	testCases := []struct {
		name        string
		productName string
		candidates  []domain.CandidateProduct
		wantName    string
	}{
		{
			name:        "shampoo matches same variant",
			productName: "Palmolive Naturals Shampoo Coconut Cream 350ml",
			candidates: []domain.CandidateProduct{
				{Name: "Palmolive Naturals Conditioner Coconut Cream 350ml", Price: 4.5},
				{Name: "Palmolive Naturals Shampoo Coconut Cream 350ml", Price: 4.5},
				{Name: "Head & Shoulders Shampoo Clean & Balanced 400ml", Price: 9},
			},
			wantName: "Palmolive Naturals Shampoo Coconut Cream 350ml",
		},
		{
			name:        "snack matches despite extra words",
			productName: "Twisties Party Bag Cheese 270g",
			candidates: []domain.CandidateProduct{
				{Name: "Twisties Cheese Party Size Share Pack 270g", Price: 5.5},
				{Name: "Cheetos Cheese & Bacon Balls 190g", Price: 4},
				{Name: "Doritos Corn Chips Cheese Supreme 170g", Price: 4.5},
			},
			wantName: "Twisties Cheese Party Size Share Pack 270g",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.FindBestMatch(ctx, tc.productName, tc.candidates)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Candidate.Name != tc.wantName {
				t.Errorf("Candidate.Name = %q, want %q", result.Candidate.Name, tc.wantName)
			}
		})
	}
}
