package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	"github.com/smallbiznis/gstengine/internal/sequence/repository"
	"github.com/smallbiznis/gstengine/pkg/apperror"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(store sequencedomain.CounterStore) *Service {
	return New(Params{
		Log:   zap.NewNop(),
		Store: store,
		Rules: config.NewStaticTaxRules(config.DefaultTaxRules()),
	})
}

func TestAllocateSequential(t *testing.T) {
	svc := newService(repository.NewKVStore(kv.NewMemoryStore()))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Allocate(ctx, "V", "2024-25")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := svc.Allocate(ctx, "V", "2025-26")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	otherVendor, err := svc.Allocate(ctx, "W", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherVendor)
}

func TestAllocateAtUsesFiscalYear(t *testing.T) {
	svc := newService(repository.NewKVStore(kv.NewMemoryStore()))
	ctx := context.Background()

	march := time.Date(2025, 3, 31, 12, 0, 0, 0, fiscal.IST)
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, fiscal.IST)

	a, err := svc.AllocateAt(ctx, "V", march)
	require.NoError(t, err)
	assert.Equal(t, "2024-25", a.FiscalYear)
	assert.Equal(t, int64(1), a.Sequence)

	b, err := svc.AllocateAt(ctx, "V", april)
	require.NoError(t, err)
	assert.Equal(t, "2025-26", b.FiscalYear)
	assert.Equal(t, int64(1), b.Sequence)
}

func assertUniqueContiguous(t *testing.T, got []int64) {
	t.Helper()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		require.Equal(t, int64(i+1), v, "sequence gap or duplicate at index %d", i)
	}
}

func allocateConcurrently(t *testing.T, svc *Service, n int) []int64 {
	t.Helper()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		got  = make([]int64, 0, n)
		errs = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := svc.Allocate(context.Background(), "V", "2024-25")
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			got = append(got, seq)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	return got
}

func TestAllocateConcurrentKV(t *testing.T) {
	svc := newService(repository.NewKVStore(kv.NewMemoryStore()))
	got := allocateConcurrently(t, svc, 200)
	require.Len(t, got, 200)
	assertUniqueContiguous(t, got)
}

func TestAllocateConcurrentDatabase(t *testing.T) {
	conn := db.NewTest(t, &sequencedomain.Counter{})
	svc := newService(repository.NewGormStore(conn))

	got := allocateConcurrently(t, svc, 120)
	require.Len(t, got, 120)
	assertUniqueContiguous(t, got)

	current, err := repository.Current(context.Background(), conn, "V", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(120), current)
}

type scriptedStore struct {
	mu      sync.Mutex
	results []int64
	errs    []error
	calls   int
}

func (s *scriptedStore) Next(ctx context.Context, vendorID, fiscalYear string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	return s.results[i], nil
}

func TestAllocateDetectsDuplicate(t *testing.T) {
	store := &scriptedStore{results: []int64{1, 2, 2}}
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "V", "2024-25")
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, "V", "2024-25")
	require.NoError(t, err)

	_, err = svc.Allocate(ctx, "V", "2024-25")
	require.Error(t, err)
	assert.ErrorIs(t, err, sequencedomain.ErrSequenceConflict)
	assert.True(t, apperror.IsFatal(err))
	assert.Equal(t, 3, store.calls, "conflicts must not be retried")
}

func TestAllocateRetriesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := &scriptedStore{results: []int64{0, 0, 7}, errs: []error{boom, boom, nil}}
	svc := newService(store)

	seq, err := svc.Allocate(context.Background(), "V", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
	assert.Equal(t, 3, store.calls)
}

func TestAllocateGivesUpAfterMaxRetries(t *testing.T) {
	boom := errors.New("connection reset")
	store := &scriptedStore{results: []int64{0, 0, 0, 0}, errs: []error{boom, boom, boom, boom}}
	svc := newService(store)

	_, err := svc.Allocate(context.Background(), "V", "2024-25")
	require.Error(t, err)
	assert.ErrorIs(t, err, sequencedomain.ErrStorageUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, config.DefaultTaxRules().SequenceMaxRetries, store.calls)
}

func TestAllocateValidatesInput(t *testing.T) {
	svc := newService(repository.NewKVStore(kv.NewMemoryStore()))
	ctx := context.Background()

	_, err := svc.Allocate(ctx, " ", "2024-25")
	assert.ErrorIs(t, err, sequencedomain.ErrInvalidVendor)

	_, err = svc.Allocate(ctx, "V/1", "2024-25")
	assert.ErrorIs(t, err, sequencedomain.ErrInvalidVendor)

	_, err = svc.Allocate(ctx, "V", "2024-26")
	assert.ErrorIs(t, err, fiscal.ErrInvalidFiscalYear)
}

func TestIssuedLogRejectsRegression(t *testing.T) {
	log := newIssuedLog()
	assert.True(t, log.record("k", issuedWindow+10))
	assert.False(t, log.record("k", 5))
	assert.False(t, log.record("k", 0))
	assert.True(t, log.record("other", 5))
}
