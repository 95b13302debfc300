// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/caselaw/cache"
	"github.com/poiesic/caselaw/core"
)

type fakeAdapter struct {
	id          core.SourceID
	unavailable bool
	results     []core.UnifiedResult
	total       int
	err         error
	delay       time.Duration
	gate        chan struct{}
	byCite      map[string]*core.UnifiedResult
	byID        map[string]*core.UnifiedResult
	calls       atomic.Int32
}

func (f *fakeAdapter) ID() core.SourceID { return f.id }
func (f *fakeAdapter) Available() bool   { return !f.unavailable }

func (f *fakeAdapter) Search(ctx context.Context, q *core.SearchQuery, limit int) (core.ResultPage, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return core.ResultPage{}, fmt.Errorf("%w: %w", core.ErrTransientNetwork, ctx.Err())
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return core.ResultPage{}, f.err
	}
	res := f.results
	if len(res) > limit {
		res = res[:limit]
	}
	total := f.total
	if total == 0 {
		total = len(f.results)
	}
	return core.ResultPage{Results: res, Total: total}, nil
}

func (f *fakeAdapter) GetByID(_ context.Context, id string) (*core.UnifiedResult, error) {
	f.calls.Add(1)
	return f.byID[id], f.err
}

func (f *fakeAdapter) GetByCitation(_ context.Context, cite string) (*core.UnifiedResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.byCite[core.NormalizeCitation(cite)], nil
}

func (f *fakeAdapter) Status() core.SourceStatus {
	return core.SourceStatus{Source: f.id, Available: f.Available(), QuotaRemaining: -1}
}

func result(source core.SourceID, name, cite string) core.UnifiedResult {
	rec := core.CaseRecord{ID: name, Source: source, Name: name}
	if cite != "" {
		rec.Citations = []core.Citation{{Cite: cite}}
	}
	c := cite
	if c == "" {
		c = core.NoCitation
	}
	return core.UnifiedResult{Record: rec, Source: source, Name: name, Citation: c}
}

func results(source core.SourceID, n int) []core.UnifiedResult {
	out := make([]core.UnifiedResult, n)
	for i := range out {
		out[i] = result(source, fmt.Sprintf("%s-%d", source, i), fmt.Sprintf("%d %s %d", i, source, i))
	}
	return out
}

func diag(t *testing.T, resp *core.SearchResponse, id core.SourceID) core.SourceDiagnostic {
	t.Helper()
	for _, d := range resp.Sources {
		if d.Source == id {
			return d
		}
	}
	t.Fatalf("no diagnostic for %s", id)
	return core.SourceDiagnostic{}
}

func boolPtr(b bool) *bool { return &b }

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoAdapters)

	a := &fakeAdapter{id: core.SourceLocal}
	_, err = New([]Adapter{a, &fakeAdapter{id: core.SourceLocal}})
	assert.ErrorIs(t, err, ErrDuplicateAdapter)

	_, err = New([]Adapter{a}, WithOrder(core.SourceRemoteA))
	assert.ErrorIs(t, err, core.ErrUnknownSource)
}

func TestDefaultOrder(t *testing.T) {
	o, err := New([]Adapter{
		&fakeAdapter{id: core.SourceRemoteB},
		&fakeAdapter{id: core.SourceLocal},
		&fakeAdapter{id: core.SourceRemoteA},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.SourceID{core.SourceLocal, core.SourceRemoteA, core.SourceRemoteB}, o.Order())
}

func TestDedupFavorsHigherPriority(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: []core.UnifiedResult{result(core.SourceLocal, "Lawrence v. Texas", "539 U.S. 558")}}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: []core.UnifiedResult{
		result(core.SourceRemoteA, "LAWRENCE ET AL. v. TEXAS", " 539  u.s. 558"),
		result(core.SourceRemoteA, "Other v. Case", "1 U.S. 1"),
	}}
	o, err := New([]Adapter{local, remoteA}, WithPreferOffline(false))
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "liberty"})
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Lawrence v. Texas", resp.Results[0].Name)
	assert.Equal(t, core.SourceLocal, resp.Results[0].Source)
	assert.Equal(t, 2, resp.TotalCount)
}

func TestUncitedRecordsAreKept(t *testing.T) {
	a := &fakeAdapter{id: core.SourceRemoteB, results: []core.UnifiedResult{
		result(core.SourceRemoteB, "A v. B", ""),
		result(core.SourceRemoteB, "C v. D", ""),
	}}
	o, err := New([]Adapter{a})
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x"})
	assert.Len(t, resp.Results, 2)
}

func TestLimitTruncatesAfterDedup(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 3)}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: results(core.SourceRemoteA, 4)}
	o, err := New([]Adapter{local, remoteA}, WithPreferOffline(false))
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x", Limit: 5})
	assert.Len(t, resp.Results, 5)
	assert.Equal(t, 7, resp.TotalCount)
	assert.Equal(t, 3, diag(t, resp, core.SourceLocal).ResultCount)
	assert.Equal(t, 4, diag(t, resp, core.SourceRemoteA).ResultCount)
}

func TestEarlyExitSkipsRemotes(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 5)}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: results(core.SourceRemoteA, 5)}
	remoteB := &fakeAdapter{id: core.SourceRemoteB, results: results(core.SourceRemoteB, 5)}
	o, err := New([]Adapter{local, remoteA, remoteB})
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x", Limit: 5})
	assert.Len(t, resp.Results, 5)
	assert.Zero(t, remoteA.calls.Load())
	assert.Zero(t, remoteB.calls.Load())
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, core.DiagLimitSatisfied, diag(t, resp, core.SourceRemoteA).Error)
	assert.Equal(t, core.DiagLimitSatisfied, diag(t, resp, core.SourceRemoteB).Error)
	assert.False(t, diag(t, resp, core.SourceRemoteA).Attempted)

	resp = o.Search(context.Background(), &core.SearchQuery{Query: "x", Limit: 5, PreferOffline: boolPtr(false)})
	assert.Equal(t, int32(1), remoteA.calls.Load())
	assert.Len(t, resp.Results, 5)
}

func TestRemoteFailureDoesNotBlockOthers(t *testing.T) {
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: results(core.SourceRemoteA, 2)}
	remoteB := &fakeAdapter{id: core.SourceRemoteB, err: fmt.Errorf("%w: connection refused", core.ErrTransientNetwork)}
	o, err := New([]Adapter{remoteA, remoteB})
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x"})
	assert.Len(t, resp.Results, 2)

	a := diag(t, resp, core.SourceRemoteA)
	assert.True(t, a.Available)
	assert.True(t, a.Succeeded)
	assert.Equal(t, 2, a.ResultCount)

	b := diag(t, resp, core.SourceRemoteB)
	assert.False(t, b.Available)
	assert.True(t, b.Attempted)
	assert.False(t, b.Succeeded)
	assert.Contains(t, b.Error, "connection refused")
}

func TestEveryFailureStillReturnsResponse(t *testing.T) {
	a := &fakeAdapter{id: core.SourceRemoteA, err: core.ErrQuotaExceeded}
	b := &fakeAdapter{id: core.SourceRemoteB, unavailable: true}
	store := cache.NewMemoryStore()
	o, err := New([]Adapter{a, b}, WithCache(store))
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x"})
	require.NotNil(t, resp)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, core.ErrQuotaExceeded.Error(), diag(t, resp, core.SourceRemoteA).Error)
	assert.Equal(t, core.DiagSourceUnavailable, diag(t, resp, core.SourceRemoteB).Error)
	assert.Zero(t, b.calls.Load())
	assert.Zero(t, store.Len(), "nothing succeeded, nothing cached")
}

func TestCallerSuppliedSources(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 1)}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: results(core.SourceRemoteA, 1)}
	o, err := New([]Adapter{local, remoteA}, WithPreferOffline(false))
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{
		Query:   "x",
		Sources: []core.SourceID{core.SourceRemoteA, "bogus", core.SourceRemoteB, core.SourceRemoteA},
	})
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, core.SourceRemoteA, resp.Sources[0].Source)
	assert.Contains(t, resp.Sources[1].Error, core.ErrUnknownSource.Error())
	assert.Contains(t, resp.Sources[2].Error, core.ErrSourceUnavailable.Error())
	assert.Zero(t, local.calls.Load())
	require.Len(t, resp.Results, 1)
	assert.Equal(t, core.SourceRemoteA, resp.Results[0].Source)
}

func TestInvalidQuery(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal}
	o, err := New([]Adapter{local})
	require.NoError(t, err)

	for _, q := range []*core.SearchQuery{nil, {Query: "  "}, {Query: "x", DateMin: "2020", DateMax: "2010"}} {
		resp := o.Search(context.Background(), q)
		require.NotNil(t, resp)
		assert.Empty(t, resp.Results)
		require.Len(t, resp.Sources, 1)
		assert.NotEmpty(t, resp.Sources[0].Error)
		assert.False(t, resp.Sources[0].Attempted)
	}
	assert.Zero(t, local.calls.Load())
}

func TestCacheHitSkipsAdapters(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 2)}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: results(core.SourceRemoteA, 2)}
	o, err := New([]Adapter{local, remoteA}, WithCache(cache.NewMemoryStore()))
	require.NoError(t, err)

	q := &core.SearchQuery{Query: "trade secret", Limit: 10}
	first := o.Search(context.Background(), q)
	require.False(t, first.Cached)
	calls := local.calls.Load() + remoteA.calls.Load()

	second := o.Search(context.Background(), &core.SearchQuery{Query: "trade  secret", Limit: 10})
	assert.True(t, second.Cached)
	assert.Equal(t, calls, local.calls.Load()+remoteA.calls.Load())
	assert.Equal(t, first.Results, second.Results)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestCallerMutationDoesNotReachCache(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 2)}
	o, err := New([]Adapter{local}, WithCache(cache.NewMemoryStore()))
	require.NoError(t, err)

	q := &core.SearchQuery{Query: "trade secret", Limit: 10}
	first := o.Search(context.Background(), q)
	require.NotEmpty(t, first.Results)
	want := first.Results[0].Name
	first.Results[0].Name = "mutated"

	second := o.Search(context.Background(), q)
	require.True(t, second.Cached)
	assert.Equal(t, want, second.Results[0].Name)
}

func TestTimeoutMarksRemainder(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 1)}
	slow := &fakeAdapter{id: core.SourceRemoteA, delay: time.Minute}
	remoteB := &fakeAdapter{id: core.SourceRemoteB, results: results(core.SourceRemoteB, 1)}
	store := cache.NewMemoryStore()
	o, err := New([]Adapter{local, slow, remoteB}, WithTimeout(20*time.Millisecond), WithCache(store))
	require.NoError(t, err)

	resp := o.Search(context.Background(), &core.SearchQuery{Query: "x"})
	require.Len(t, resp.Results, 1, "results accumulated before the timeout survive")
	assert.Equal(t, core.SourceLocal, resp.Results[0].Source)

	a := diag(t, resp, core.SourceRemoteA)
	assert.True(t, a.Attempted)
	assert.NotEmpty(t, a.Error)

	b := diag(t, resp, core.SourceRemoteB)
	assert.False(t, b.Attempted)
	assert.Equal(t, core.DiagTimeout, b.Error)
	assert.Zero(t, remoteB.calls.Load())
	assert.Zero(t, store.Len(), "timed-out searches are not cached")
}

func TestCancelledContextSkipsAll(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 1)}
	o, err := New([]Adapter{local})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := o.Search(ctx, &core.SearchQuery{Query: "x"})
	assert.Empty(t, resp.Results)
	assert.Equal(t, core.DiagTimeout, diag(t, resp, core.SourceLocal).Error)
	assert.Zero(t, local.calls.Load())
}

func TestConcurrentIdenticalSearchesCollapse(t *testing.T) {
	gate := make(chan struct{})
	local := &fakeAdapter{id: core.SourceLocal, results: results(core.SourceLocal, 1), gate: gate}
	o, err := New([]Adapter{local})
	require.NoError(t, err)

	var wg sync.WaitGroup
	responses := make([]*core.SearchResponse, 5)
	for i := range responses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			responses[i] = o.Search(context.Background(), &core.SearchQuery{Query: "same"})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), local.calls.Load())
	ids := make(map[uuid.UUID]struct{})
	for _, r := range responses {
		require.Len(t, r.Results, 1)
		ids[r.RequestID] = struct{}{}
	}
	assert.Len(t, ids, 5)
}

type recordingMonitor struct {
	mu        sync.Mutex
	started   int
	hits      int
	finished  []core.SourceDiagnostic
	dropped   int
	completed int
}

func (m *recordingMonitor) Start(uuid.UUID, *core.SearchQuery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMonitor) CacheHit(uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMonitor) AdapterFinished(_ uuid.UUID, d core.SourceDiagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, d)
}

func (m *recordingMonitor) DuplicateDropped(uuid.UUID, core.UnifiedResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *recordingMonitor) Finish(*core.SearchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
}

func TestMonitorHooks(t *testing.T) {
	local := &fakeAdapter{id: core.SourceLocal, results: []core.UnifiedResult{result(core.SourceLocal, "A", "1 U.S. 1")}}
	remoteA := &fakeAdapter{id: core.SourceRemoteA, results: []core.UnifiedResult{result(core.SourceRemoteA, "A", "1 U.S. 1")}}
	m := &recordingMonitor{}
	o, err := New([]Adapter{local, remoteA}, WithMonitor(m), WithCache(cache.NewMemoryStore()), WithPreferOffline(false))
	require.NoError(t, err)

	o.Search(context.Background(), &core.SearchQuery{Query: "x"})
	o.Search(context.Background(), &core.SearchQuery{Query: "x"})

	assert.Equal(t, 1, m.started)
	assert.Equal(t, 1, m.hits)
	assert.Len(t, m.finished, 2)
	assert.Equal(t, 1, m.dropped)
	assert.Equal(t, 1, m.completed)
}

func TestGetCaseByCitationWalksPriority(t *testing.T) {
	hit := result(core.SourceRemoteB, "Lawrence v. Texas", "539 U.S. 558")
	local := &fakeAdapter{id: core.SourceLocal}
	broken := &fakeAdapter{id: core.SourceRemoteA, err: core.ErrTransientNetwork}
	remoteB := &fakeAdapter{id: core.SourceRemoteB, byCite: map[string]*core.UnifiedResult{"539 u.s. 558": &hit}}
	o, err := New([]Adapter{local, broken, remoteB})
	require.NoError(t, err)

	got := o.GetCaseByCitation(context.Background(), "539 U.S. 558")
	require.NotNil(t, got)
	assert.Equal(t, core.SourceRemoteB, got.Source)
	assert.Equal(t, int32(1), local.calls.Load())

	assert.Nil(t, o.GetCaseByCitation(context.Background(), "1 F. 1"))
	assert.Nil(t, o.GetCaseByCitation(context.Background(), " "))
}

func TestGetByIDAndStatus(t *testing.T) {
	rec := result(core.SourceLocal, "A v. B", "1 U.S. 1")
	local := &fakeAdapter{id: core.SourceLocal, byID: map[string]*core.UnifiedResult{"7": &rec}}
	off := &fakeAdapter{id: core.SourceRemoteA, unavailable: true}
	o, err := New([]Adapter{local, off})
	require.NoError(t, err)

	got, err := o.GetByID(context.Background(), core.SourceLocal, "7")
	require.NoError(t, err)
	assert.Equal(t, "A v. B", got.Name)

	_, err = o.GetByID(context.Background(), core.SourceRemoteB, "7")
	assert.ErrorIs(t, err, core.ErrUnknownSource)
	_, err = o.GetByID(context.Background(), core.SourceRemoteA, "7")
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)

	st := o.SourceStatus()
	require.Len(t, st, 2)
	assert.True(t, st[0].Available)
	assert.False(t, st[1].Available)
}
