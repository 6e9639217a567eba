package main

import (
	"flag"
	"log"
	"path/filepath"
	"testing"

	"github.com/fumin/tnet/spectrumdb"
	"github.com/stretchr/testify/require"
)

func TestReadConfigs(t *testing.T) {
	t.Parallel()
	b := []byte(`
runs:
  - l: [6, 8]
    h: [0.5, 1]
    b: [4]
    exact: true
    sweep:
      n: 3
      maxm: [2, 8]
      cutoff: [1e-8]
      noise: [1e-4, 0]
  - l: [10]
    h: [2]
    b: [8, 16]
`)
	configs, err := readConfigs(b)
	require.NoError(t, err)
	require.Len(t, configs, 6)

	cfg := configs[0]
	require.Equal(t, 6, cfg.l)
	require.Equal(t, 0.5, cfg.h)
	require.Equal(t, 4, cfg.b)
	require.True(t, cfg.exact)
	require.Equal(t, Sweep{N: 3, Maxm: []int{2, 8}, Cutoff: []float64{1e-8}, Noise: []float64{1e-4, 0}}, cfg.sweep)
	require.NotEqual(t, configs[0].id, configs[1].id)

	require.Equal(t, 10, configs[5].l)
	require.Equal(t, 16, configs[5].b)
	require.False(t, configs[5].exact)

	_, err = readConfigs([]byte(`runs: [{l: [1], h: [1], b: [2]}]`))
	require.Error(t, err)
	_, err = readConfigs([]byte(`runs: [{l: [4], b: [2]}]`))
	require.Error(t, err)
}

func TestDefaultConfigs(t *testing.T) {
	t.Parallel()
	configs := defaultConfigs()
	require.Len(t, configs, 18*3)
	require.InDelta(t, 0.01, configs[0].h, 1e-12)
	require.InDelta(t, 100, configs[len(configs)-1].h, 1e-9)
}

func TestSolve(t *testing.T) {
	t.Parallel()
	db, err := spectrumdb.Open(filepath.Join(t.TempDir(), fnameSpectrum))
	require.NoError(t, err)
	defer db.Close()

	configs, err := readConfigs([]byte(`runs: [{l: [6], h: [0.5], b: [8], exact: true, sweep: {n: 4}}]`))
	require.NoError(t, err)
	stat, err := solve(db, configs[0])
	require.NoError(t, err)
	require.Less(t, stat.e0, -5.0)
	require.Greater(t, stat.m, 0.5)
	require.LessOrEqual(t, stat.m, 1+1e-9)

	records, err := db.Records(configs[0].id)
	require.NoError(t, err)
	require.Len(t, records, 4*5)
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
