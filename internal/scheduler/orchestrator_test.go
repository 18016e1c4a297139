package scheduler

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXSentinel/internal/collector"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
)

var runNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory recorder.Store.
type memStore struct {
	rows    []recorder.Row
	fields  map[string]recorder.Fields
	listErr error
	failOn  string
	creates int
	updates int
}

func newMemStore(rows ...recorder.Row) *memStore {
	return &memStore{rows: rows, fields: map[string]recorder.Fields{}}
}

func (m *memStore) Name() string { return "mem" }
func (m *memStore) Close() error { return nil }
func (m *memStore) ListRows(context.Context) ([]recorder.Row, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]recorder.Row(nil), m.rows...), nil
}

func (m *memStore) Create(_ context.Context, f recorder.Fields) (string, error) {
	if f.Name == m.failOn {
		return "", errors.New("store unavailable")
	}
	m.creates++
	handle := "row-" + strconv.Itoa(len(m.rows)+1)
	m.rows = append(m.rows, recorder.Row{Handle: handle, Name: f.Name})
	m.fields[handle] = f
	return handle, nil
}

func (m *memStore) Update(_ context.Context, handle string, f recorder.Fields) error {
	if f.Name == m.failOn {
		return errors.New("store unavailable")
	}
	m.updates++
	m.fields[handle] = f
	return nil
}

func healthyFetcher(pairs ...model.Pair) *collector.MockFetcher {
	m := &collector.MockFetcher{
		Rates:    map[model.Pair]float64{},
		IntraMap: map[model.Pair]model.TimeSeries{},
		DailyMap: map[model.Pair]model.TimeSeries{},
	}
	for _, p := range pairs {
		m.Rates[p] = 1.25
		m.IntraMap[p] = model.TimeSeries{"2024-03-05 11:55:00": {High: 1.26, Low: 1.24, Close: 1.25}}
		m.DailyMap[p] = collector.GenerateDailyBars(runNow, 1.20, 0.002, 30)
	}
	return m
}

func newTestOrchestrator(f collector.Provider, store recorder.Store, m *metrics.Recorder, pairs ...model.Pair) *Orchestrator {
	col := collector.NewCollector(f, collector.DefaultParams(), nil)
	col.Now = func() time.Time { return runNow }
	o := NewOrchestrator(col, store, pairs, m, nil)
	o.Now = func() time.Time { return runNow }
	return o
}

func TestOrchestrator_CreatesThenUpdates(t *testing.T) {
	store := newMemStore(recorder.Row{Handle: "existing", Name: " gbpusd "})
	fetcher := healthyFetcher("EURUSD", "GBPUSD")
	o := newTestOrchestrator(fetcher, store, nil, "EURUSD", "GBPUSD")

	report := o.Run(context.Background())

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, recorder.IntentCreate, report.Outcomes[0].Intent.Kind)
	assert.Equal(t, "row-2", report.Outcomes[0].Handle)
	assert.Equal(t, recorder.IntentUpdate, report.Outcomes[1].Intent.Kind)
	assert.Equal(t, "existing", report.Outcomes[1].Handle)
	assert.Equal(t, "GBPUSD", store.fields["existing"].Name)
	assert.Equal(t, "mem", report.Store)

	// A second run finds the created row and updates it in place.
	second := o.Run(context.Background())
	assert.Equal(t, recorder.IntentUpdate, second.Outcomes[0].Intent.Kind)
	assert.Equal(t, "row-2", second.Outcomes[0].Handle)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 3, store.updates)
}

func TestOrchestrator_PairFailureIsIsolated(t *testing.T) {
	fetcher := healthyFetcher("EURUSD", "USDJPY")
	fetcher.DailyMap["GBPUSD"] = collector.GenerateDailyBars(runNow, 1.2, 0, 3)
	fetcher.Rates["GBPUSD"] = 1.2
	store := newMemStore()
	m := metrics.New()
	o := newTestOrchestrator(fetcher, store, m, "EURUSD", "GBPUSD", "USDJPY")

	report := o.Run(context.Background())

	emitted, failed := report.Count()
	assert.Equal(t, 2, emitted)
	assert.Equal(t, 1, failed)
	assert.True(t, report.Outcomes[1].Failed())
	assert.True(t, model.IsInsufficientData(report.Outcomes[1].Err))
	assert.Equal(t, model.Pair("USDJPY"), report.Outcomes[2].Pair)
	assert.Equal(t, 2, store.creates)

	reg := m.Registry()
	n, err := testutil.GatherAndCount(reg, "fxsentinel_pairs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per result label")
}

func TestOrchestrator_WriteFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "EURUSD"
	o := newTestOrchestrator(healthyFetcher("EURUSD"), store, nil, "EURUSD")

	report := o.Run(context.Background())

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "create row")
	assert.NotNil(t, out.Snapshot)
}

func TestOrchestrator_ListRowsFailureFailsEveryPair(t *testing.T) {
	store := newMemStore()
	store.listErr = &model.TransportError{Op: "query database", StatusCode: 503, Err: errors.New("unavailable")}
	fetcher := healthyFetcher("EURUSD", "GBPUSD")
	o := newTestOrchestrator(fetcher, store, nil, "EURUSD", "GBPUSD")

	report := o.Run(context.Background())

	require.Len(t, report.Outcomes, 2)
	for _, out := range report.Outcomes {
		assert.True(t, model.IsTransport(out.Err))
	}
	assert.Empty(t, fetcher.Calls, "no pair is fetched when rows cannot be listed")
	assert.Zero(t, store.creates)
}

func TestOrchestrator_DuplicateRowsReported(t *testing.T) {
	store := newMemStore(
		recorder.Row{Handle: "a", Name: "EURUSD"},
		recorder.Row{Handle: "b", Name: "eurusd"},
	)
	o := newTestOrchestrator(healthyFetcher("EURUSD"), store, nil, "EURUSD")

	report := o.Run(context.Background())

	require.Len(t, report.Ambiguities, 1)
	assert.Equal(t, []string{"a", "b"}, report.Ambiguities[0].Handles)
	assert.Equal(t, "b", report.Outcomes[0].Handle)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := healthyFetcher("EURUSD")
	o := newTestOrchestrator(fetcher, newMemStore(), nil, "EURUSD")

	report := o.Run(ctx)

	require.Len(t, report.Outcomes, 1)
	assert.ErrorIs(t, report.Outcomes[0].Err, context.Canceled)
	assert.Empty(t, fetcher.Calls)
}

func TestOrchestrator_ComputeSnapshot(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(healthyFetcher("AUDNZD"), store, nil)

	snap, err := o.ComputeSnapshot(context.Background(), "AUDNZD")

	require.NoError(t, err)
	assert.Equal(t, model.Pair("AUDNZD"), snap.Pair)
	assert.Zero(t, store.creates)
}
