package resources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/amap/amap-dispatch/models"
)

// ------------ Mocking data ------------ //

type mockSource struct {
	cores     int
	ram       float64
	coresErr  error
	ramErr    error
	ramReads  int
	coreReads int
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) CPUCores() (int, error) {
	m.coreReads++
	return m.cores, m.coresErr
}

func (m *mockSource) FreeMemory() (float64, error) {
	m.ramReads++
	return m.ram, m.ramErr
}

const gib = 1024 * 1024 * 1024

// ------------ Tests ------------ //

func TestCoresWithSufficientRAM(t *testing.T) {
	tests := []struct {
		name     string
		free     float64
		needed   float64
		fraction float64
		maxRAM   *float64
		expected int
	}{
		{name: "reserve ten percent", free: 100, needed: 10, fraction: 0.1, expected: 9},
		{name: "floor of fractional result", free: 55, needed: 10, fraction: 0, expected: 5},
		{name: "max ram below free", free: 100, needed: 10, fraction: 0, maxRAM: ptr(40.0), expected: 4},
		{name: "max ram above free", free: 100, needed: 10, fraction: 0, maxRAM: ptr(400.0), expected: 10},
		{name: "not enough for one", free: 9, needed: 10, fraction: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoresWithSufficientRAM(tt.free, tt.needed, tt.fraction, tt.maxRAM)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEstimateWorkerCountCPUOnly(t *testing.T) {
	source := &mockSource{cores: 16, ram: 1}
	e := NewEstimator(source)

	n, err := e.EstimateWorkerCount(models.NewResourceQuery())
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	// no per-process memory: the memory counter is never consulted
	assert.Zero(t, source.ramReads)
}

func TestEstimateWorkerCountBounds(t *testing.T) {
	for cores := 1; cores <= 32; cores++ {
		for minFree := 0; minFree <= cores; minFree++ {
			q := models.NewResourceQuery()
			q.MinFreeCPUCores = minFree
			q = q.WithRAMNeededPerProcess(2 * gib)

			n, err := NewEstimator(&mockSource{cores: cores, ram: 24 * gib}).EstimateWorkerCount(q)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 0)
			assert.LessOrEqual(t, n, cores-minFree)
		}
	}
}

func TestEstimateWorkerCountNegativeWhenReservingTooManyCores(t *testing.T) {
	q := models.NewResourceQuery()
	q.MinFreeCPUCores = 8

	n, err := NewEstimator(&mockSource{cores: 4}).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, -4, n)
}

func TestEstimateWorkerCountMemoryLimited(t *testing.T) {
	// 10 GiB free, 10% reserved, 2 GiB each -> 4 workers despite 30 spare cores
	q := models.NewResourceQuery().WithRAMNeededPerProcess(2 * gib)

	n, err := NewEstimator(&mockSource{cores: 32, ram: 10 * gib}).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestEstimateWorkerCountMaxRAMUsage(t *testing.T) {
	q := models.NewResourceQuery().
		WithRAMNeededPerProcess(1 * gib).
		WithMaxRAMUsage(5 * gib)
	q.FractionFreeRAM = 0

	n, err := NewEstimator(&mockSource{cores: 64, ram: 100 * gib}).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestEstimateWorkerCountMaxProcesses(t *testing.T) {
	q := models.NewResourceQuery().WithMaxProcesses(3)

	n, err := NewEstimator(&mockSource{cores: 16}).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// a cap above the budget changes nothing
	q = models.NewResourceQuery().WithMaxProcesses(100)
	n, err = NewEstimator(&mockSource{cores: 16}).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 14, n)
}

func TestEstimateWorkerCountIgnoresNonPositiveRAMNeed(t *testing.T) {
	source := &mockSource{cores: 8, ram: gib}
	q := models.NewResourceQuery().WithRAMNeededPerProcess(0)

	n, err := NewEstimator(source).EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Zero(t, source.ramReads)
}

func TestEstimateWorkerCountReadsEveryCall(t *testing.T) {
	source := &mockSource{cores: 8, ram: 8 * gib}
	e := NewEstimator(source)
	q := models.NewResourceQuery().WithRAMNeededPerProcess(gib)

	_, err := e.EstimateWorkerCount(q)
	require.NoError(t, err)

	source.cores = 4
	n, err := e.EstimateWorkerCount(q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, source.coreReads)
	assert.Equal(t, 2, source.ramReads)
}

func TestEstimateWorkerCountSourceErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewEstimator(&mockSource{coresErr: boom}).EstimateWorkerCount(models.NewResourceQuery())
	assert.ErrorIs(t, err, boom)

	q := models.NewResourceQuery().WithRAMNeededPerProcess(gib)
	_, err = NewEstimator(&mockSource{cores: 8, ramErr: boom}).EstimateWorkerCount(q)
	assert.ErrorIs(t, err, boom)
}

func TestSnapshot(t *testing.T) {
	snapshot, err := Snapshot(&mockSource{cores: 12, ram: 3 * gib})
	require.NoError(t, err)
	assert.Equal(t, models.EnvironmentSnapshot{
		Source:            "mock",
		TotalCPUCores:     12,
		AvailableRAMBytes: 3 * gib,
	}, snapshot)
}

func TestLiveOSSource(t *testing.T) {
	var source LiveOSSource

	cores, err := source.CPUCores()
	require.NoError(t, err)
	assert.Greater(t, cores, 0)

	ram, err := source.FreeMemory()
	require.NoError(t, err)
	assert.Greater(t, ram, 0.0)
}

func ptr[T any](v T) *T {
	return &v
}
