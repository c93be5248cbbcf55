package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/baiserke/promobot/internal/metrics"
	"github.com/baiserke/promobot/internal/model"
)

// Ledger is the promo-code store surface the allocation flow needs.
type Ledger interface {
	FreeCodes(ctx context.Context) ([]model.FreeCode, error)
	FindAssignment(ctx context.Context, username string) (code string, found bool, err error)
	Assign(ctx context.Context, id int64, username string) error
}

// Verifier confirms that a username left a qualifying comment.
type Verifier interface {
	HasCommented(ctx context.Context, username string) (bool, error)
}

// AllocationStatus classifies the outcome of an allocation request.
type AllocationStatus int

const (
	StatusGranted AllocationStatus = iota
	StatusAlreadyAssigned
	StatusNotQualified
	StatusExhausted
)

// String returns the metrics label for the status.
func (s AllocationStatus) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusAlreadyAssigned:
		return "already_assigned"
	case StatusNotQualified:
		return "not_qualified"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// AllocationResult is the outcome of one allocation request. Code is set
// for StatusGranted and StatusAlreadyAssigned.
type AllocationResult struct {
	Status AllocationStatus
	Code   string
}

// AllocationService hands out promo codes: prior-assignment check, comment
// verification, then one uniformly-random free code.
//
// Outcomes the user caused (not qualified, already has a code, codes ran
// out) are reported in the result. Store and API faults are the error
// return; they are never folded into a "not qualified" outcome.
type AllocationService struct {
	ledger   Ledger
	verifier Verifier

	mu   sync.Mutex
	rand *rand.Rand
}

// NewAllocationService creates a new AllocationService instance
func NewAllocationService(ledger Ledger, verifier Verifier) *AllocationService {
	return &AllocationService{
		ledger:   ledger,
		verifier: verifier,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NormalizeUsername strips a leading @ and lowercases the handle. Ledger
// lookups and comment matching both use the normalized form.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}

// Allocate runs one allocation request for the given handle.
//
// Requests are serialized by a mutex, so two concurrent requests can never
// hand out the same code or give one username two codes. The guarded UPDATE
// in the ledger is the backstop should another process touch the table.
func (s *AllocationService) Allocate(ctx context.Context, rawUsername string) (result AllocationResult, err error) {
	// Start timing for metrics
	start := time.Now()

	// Defer metric recording to ensure it's always called
	defer func() {
		outcome := "error"
		if err == nil {
			outcome = result.Status.String()
		}
		metrics.RecordAllocationDuration(outcome, time.Since(start).Seconds())
	}()

	username := NormalizeUsername(rawUsername)
	if username == "" {
		return AllocationResult{Status: StatusNotQualified}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A username that already holds a code gets the same code again and
	// the ledger stays untouched.
	code, found, err := s.ledger.FindAssignment(ctx, username)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("failed to look up prior assignment: %w", err)
	}
	if found {
		return AllocationResult{Status: StatusAlreadyAssigned, Code: code}, nil
	}

	verified, err := s.verifier.HasCommented(ctx, username)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("failed to verify comment: %w", err)
	}
	if !verified {
		return AllocationResult{Status: StatusNotQualified}, nil
	}

	free, err := s.ledger.FreeCodes(ctx)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("failed to list free codes: %w", err)
	}
	if len(free) == 0 {
		return AllocationResult{Status: StatusExhausted}, nil
	}

	// Uniform choice over the whole free set: every remaining code is
	// equally likely, not the first available.
	pick := free[s.rand.Intn(len(free))]

	if err := s.ledger.Assign(ctx, pick.ID, username); err != nil {
		return AllocationResult{}, fmt.Errorf("failed to assign code %q: %w", pick.Code, err)
	}

	return AllocationResult{Status: StatusGranted, Code: pick.Code}, nil
}
