package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baiserke/promobot/internal/model"
)

type ledgerRow struct {
	id         int64
	code       string
	assignedTo string
}

type fakeLedger struct {
	rows        []ledgerRow
	findErr     error
	freeErr     error
	assignErr   error
	assignCalls int
}

func (f *fakeLedger) FreeCodes(ctx context.Context) ([]model.FreeCode, error) {
	if f.freeErr != nil {
		return nil, f.freeErr
	}
	var free []model.FreeCode
	for _, row := range f.rows {
		if row.assignedTo == "" {
			free = append(free, model.FreeCode{ID: row.id, Code: row.code})
		}
	}
	return free, nil
}

func (f *fakeLedger) FindAssignment(ctx context.Context, username string) (string, bool, error) {
	if f.findErr != nil {
		return "", false, f.findErr
	}
	for _, row := range f.rows {
		if row.assignedTo != "" && strings.EqualFold(row.assignedTo, username) {
			return row.code, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeLedger) Assign(ctx context.Context, id int64, username string) error {
	f.assignCalls++
	if f.assignErr != nil {
		return f.assignErr
	}
	for i := range f.rows {
		if f.rows[i].id == id {
			f.rows[i].assignedTo = username
			return nil
		}
	}
	return errors.New("no such row")
}

func (f *fakeLedger) assignee(code string) string {
	for _, row := range f.rows {
		if row.code == code {
			return row.assignedTo
		}
	}
	return ""
}

type fakeVerifier struct {
	commenters []string
	err        error
	calls      []string
}

func (f *fakeVerifier) HasCommented(ctx context.Context, username string) (bool, error) {
	f.calls = append(f.calls, username)
	if f.err != nil {
		return false, f.err
	}
	for _, c := range f.commenters {
		if strings.EqualFold(c, username) {
			return true, nil
		}
	}
	return false, nil
}

func twoFreeCodes() *fakeLedger {
	return &fakeLedger{rows: []ledgerRow{
		{id: 1, code: "A1"},
		{id: 2, code: "B2"},
	}}
}

func TestAllocateGrantsFreeCode(t *testing.T) {
	ledger := twoFreeCodes()
	verifier := &fakeVerifier{commenters: []string{"alice"}}
	svc := NewAllocationService(ledger, verifier)

	result, err := svc.Allocate(context.Background(), "@Alice")
	require.NoError(t, err)
	require.Equal(t, StatusGranted, result.Status)
	assert.Contains(t, []string{"A1", "B2"}, result.Code)

	// The chosen row now carries the normalized handle; the other is free.
	assert.Equal(t, "alice", ledger.assignee(result.Code))
	free, err := ledger.FreeCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, free, 1)

	// The verifier saw the normalized handle too.
	require.Equal(t, []string{"alice"}, verifier.calls)
}

func TestAllocateIsIdempotent(t *testing.T) {
	ledger := twoFreeCodes()
	verifier := &fakeVerifier{commenters: []string{"alice"}}
	svc := NewAllocationService(ledger, verifier)

	first, err := svc.Allocate(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, StatusGranted, first.Status)

	for _, handle := range []string{"alice", "@alice", "ALICE", "@Alice"} {
		again, err := svc.Allocate(context.Background(), handle)
		require.NoError(t, err)
		assert.Equal(t, StatusAlreadyAssigned, again.Status, "handle %q", handle)
		assert.Equal(t, first.Code, again.Code, "handle %q", handle)
	}

	// One write total; the repeats never touched the ledger.
	assert.Equal(t, 1, ledger.assignCalls)
}

func TestAllocateRejectsNonCommenter(t *testing.T) {
	ledger := twoFreeCodes()
	verifier := &fakeVerifier{commenters: []string{"alice"}}
	svc := NewAllocationService(ledger, verifier)

	result, err := svc.Allocate(context.Background(), "@bob")
	require.NoError(t, err)
	assert.Equal(t, StatusNotQualified, result.Status)
	assert.Empty(t, result.Code)

	free, err := ledger.FreeCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, free, 2, "ledger must stay unchanged")
}

func TestAllocateExhausted(t *testing.T) {
	ledger := &fakeLedger{rows: []ledgerRow{
		{id: 1, code: "A1", assignedTo: "carol"},
	}}
	verifier := &fakeVerifier{commenters: []string{"alice"}}
	svc := NewAllocationService(ledger, verifier)

	result, err := svc.Allocate(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, result.Status)
	assert.Zero(t, ledger.assignCalls, "no write may happen on exhaustion")
}

func TestAllocateNoDoubleAllocation(t *testing.T) {
	ledger := twoFreeCodes()
	verifier := &fakeVerifier{commenters: []string{"alice", "bob"}}
	svc := NewAllocationService(ledger, verifier)

	first, err := svc.Allocate(context.Background(), "alice")
	require.NoError(t, err)
	second, err := svc.Allocate(context.Background(), "bob")
	require.NoError(t, err)

	require.Equal(t, StatusGranted, first.Status)
	require.Equal(t, StatusGranted, second.Status)
	assert.NotEqual(t, first.Code, second.Code)
}

func TestAllocateVerifierFaultIsNotRejection(t *testing.T) {
	ledger := twoFreeCodes()
	verifier := &fakeVerifier{err: errors.New("connection reset")}
	svc := NewAllocationService(ledger, verifier)

	_, err := svc.Allocate(context.Background(), "alice")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	assert.Zero(t, ledger.assignCalls)
}

func TestAllocateLedgerFaultSurfaces(t *testing.T) {
	ledger := twoFreeCodes()
	ledger.findErr = errors.New("store unreachable")
	svc := NewAllocationService(ledger, &fakeVerifier{commenters: []string{"alice"}})

	_, err := svc.Allocate(context.Background(), "alice")
	require.Error(t, err)
	assert.ErrorContains(t, err, "store unreachable")
}

func TestAllocateChoosesUniformly(t *testing.T) {
	codes := []string{"A", "B", "C", "D", "E"}
	verifier := &fakeVerifier{commenters: []string{"alice"}}

	ledger := &fakeLedger{}
	svc := NewAllocationService(ledger, verifier)

	const trials = 2000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		ledger.rows = ledger.rows[:0]
		for j, code := range codes {
			ledger.rows = append(ledger.rows, ledgerRow{id: int64(j + 1), code: code})
		}

		result, err := svc.Allocate(context.Background(), "alice")
		require.NoError(t, err)
		require.Equal(t, StatusGranted, result.Status)
		counts[result.Code]++
	}

	// Expected 400 per code; a band of ±150 is far beyond statistical noise.
	for _, code := range codes {
		assert.InDelta(t, trials/len(codes), counts[code], 150, "code %s", code)
	}
}

func TestNormalizeUsername(t *testing.T) {
	for raw, want := range map[string]string{
		"@FooBar":   "foobar",
		"foobar":    "foobar",
		"FooBar":    "foobar",
		" @Alice  ": "alice",
		"@":         "",
		"":          "",
	} {
		assert.Equal(t, want, NormalizeUsername(raw), "raw %q", raw)
	}
}

func TestAllocateEmptyUsername(t *testing.T) {
	ledger := twoFreeCodes()
	svc := NewAllocationService(ledger, &fakeVerifier{})

	result, err := svc.Allocate(context.Background(), "@")
	require.NoError(t, err)
	assert.Equal(t, StatusNotQualified, result.Status)
	assert.Zero(t, ledger.assignCalls)
}
