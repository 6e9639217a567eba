package spectrumdb

import (
	"database/sql"
	"flag"
	"log"
	"path/filepath"
	"testing"

	"github.com/fumin/tnet/itensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	t.Parallel()
	db, err := Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Insert("a", 0, 1, itensor.NewSpectrum([]float64{0.9, 0.1}, 1e-3)))
	require.NoError(t, db.Insert("a", 0, 0, itensor.NewSpectrum([]float64{1}, 0)))
	require.NoError(t, db.Insert("a", 1, 0, itensor.NewSpectrum([]float64{0.5, 0.3, 0.2}, 1e-5)))
	require.NoError(t, db.Insert("b", 0, 0, itensor.NewSpectrum([]float64{0.7}, 0.3)))

	spec, err := db.Spectrum("a", 0, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{0.9, 0.1}, spec.EigsKept())
	require.Equal(t, 1e-3, spec.Truncerr())

	// Inserting again replaces the record.
	require.NoError(t, db.Insert("a", 0, 1, itensor.NewSpectrum([]float64{1}, 2e-3)))
	spec, err = db.Spectrum("a", 0, 1)
	require.NoError(t, err)
	require.Equal(t, 1, spec.NumEigsKept())
	require.Equal(t, 2e-3, spec.Truncerr())

	records, err := db.Records("a")
	require.NoError(t, err)
	require.Equal(t, []Record{
		{Run: "a", Sweep: 0, Bond: 0, Truncerr: 0, Eigs: []float64{1}},
		{Run: "a", Sweep: 0, Bond: 1, Truncerr: 2e-3, Eigs: []float64{1}},
		{Run: "a", Sweep: 1, Bond: 0, Truncerr: 1e-5, Eigs: []float64{0.5, 0.3, 0.2}},
	}, records)

	maxErrs, err := db.MaxTruncerr("a")
	require.NoError(t, err)
	require.Equal(t, []float64{2e-3, 1e-5}, maxErrs)

	_, err = db.Spectrum("c", 0, 0)
	require.True(t, errors.Is(err, sql.ErrNoRows), "%+v", err)
}

func TestOpenExisting(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "s.db")
	db, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Insert("a", 2, 3, itensor.NewSpectrum([]float64{0.6, 0.4}, 0)))
	require.NoError(t, db.Close())

	db, err = Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	spec, err := db.Spectrum("a", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []float64{0.6, 0.4}, spec.EigsKept())
}

func TestRecordsLongRun(t *testing.T) {
	t.Parallel()
	db, err := Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer db.Close()

	const sweeps, bonds = 4, 40
	for sweep := range sweeps {
		for bond := range bonds {
			spec := itensor.NewSpectrum([]float64{0.5, 0.25, 0.125}, float64(sweep*bonds+bond)*1e-6)
			require.NoError(t, db.Insert("long", sweep, bond, spec))
		}
	}

	records, err := db.Records("long")
	require.NoError(t, err)
	require.Len(t, records, sweeps*bonds)
	for i, r := range records {
		require.Equal(t, i/bonds, r.Sweep)
		require.Equal(t, i%bonds, r.Bond)
		require.Equal(t, []float64{0.5, 0.25, 0.125}, r.Eigs)
	}

	maxErrs, err := db.MaxTruncerr("long")
	require.NoError(t, err)
	require.Len(t, maxErrs, sweeps)
	require.InDelta(t, float64(sweeps*bonds-1)*1e-6, maxErrs[sweeps-1], 1e-15)
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
