// Package spectrumdb stores the spectra of the bond decompositions of DMRG runs in sqlite.
package spectrumdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fumin/tnet/itensor"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableSpectrum = "spectrum"
	tableEig      = "eig"

	queryTimeout = 3 * time.Second
)

// Record is the Spectrum of the decomposition of one bond in one sweep of a run.
type Record struct {
	Run      string
	Sweep    int
	Bond     int
	Truncerr float64
	Eigs     []float64
}

// DB is a sqlite database of Records.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the database at dbPath, creating its tables if they do not exist.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("db %s", dbPath))
	}
	return &DB{Path: dbPath, db: db}, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

// Insert stores spec as the record of bond in sweep of run, replacing any previous one.
func (s *DB) Insert(run string, sweep, bond int, spec itensor.Spectrum) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := insert(ctx, tx, Record{Run: run, Sweep: sweep, Bond: bond, Truncerr: spec.Truncerr(), Eigs: spec.EigsKept()}); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, r Record) error {
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (run, sweep, bond, truncerr, m) VALUES (?, ?, ?, ?, ?)`, tableSpectrum)
	if _, err := tx.ExecContext(ctx, sqlStr, r.Run, r.Sweep, r.Bond, r.Truncerr, len(r.Eigs)); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, r))
	}
	sqlStr = fmt.Sprintf(`DELETE FROM %s WHERE run=? AND sweep=? AND bond=?`, tableEig)
	if _, err := tx.ExecContext(ctx, sqlStr, r.Run, r.Sweep, r.Bond); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`INSERT INTO %s (run, sweep, bond, k, v) VALUES (?, ?, ?, ?, ?)`, tableEig)
	for k, v := range r.Eigs {
		if _, err := tx.ExecContext(ctx, sqlStr, r.Run, r.Sweep, r.Bond, k, v); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%d", k))
		}
	}
	return nil
}

// Spectrum returns the stored spectrum of bond in sweep of run.
// It returns sql.ErrNoRows if there is none.
func (s *DB) Spectrum(run string, sweep, bond int) (itensor.Spectrum, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT truncerr FROM %s WHERE run=? AND sweep=? AND bond=?`, tableSpectrum)
	var truncerr float64
	if err := s.db.QueryRowContext(ctx, sqlStr, run, sweep, bond).Scan(&truncerr); err != nil {
		return itensor.Spectrum{}, errors.Wrap(err, fmt.Sprintf("%s %d %d", run, sweep, bond))
	}
	eigs, err := s.eigs(ctx, run, sweep, bond)
	if err != nil {
		return itensor.Spectrum{}, errors.Wrap(err, "")
	}
	return itensor.NewSpectrum(eigs, truncerr), nil
}

func (s *DB) eigs(ctx context.Context, run string, sweep, bond int) ([]float64, error) {
	sqlStr := fmt.Sprintf(`SELECT v FROM %s WHERE run=? AND sweep=? AND bond=? ORDER BY k`, tableEig)
	rows, err := s.db.QueryContext(ctx, sqlStr, run, sweep, bond)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	eigs := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "")
		}
		eigs = append(eigs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return eigs, nil
}

// Records returns the records of run ordered by sweep and bond.
func (s *DB) Records(run string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT sweep, bond, truncerr FROM %s WHERE run=? ORDER BY sweep, bond`, tableSpectrum)
	rows, err := s.db.QueryContext(ctx, sqlStr, run)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		r := Record{Run: run}
		if err := rows.Scan(&r.Sweep, &r.Bond, &r.Truncerr); err != nil {
			return nil, errors.Wrap(err, "")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	rows.Close()

	for i, r := range records {
		records[i].Eigs, err = s.eigs(ctx, run, r.Sweep, r.Bond)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d %d", r.Sweep, r.Bond))
		}
	}
	return records, nil
}

// MaxTruncerr returns the largest truncation error of each sweep of run.
func (s *DB) MaxTruncerr(run string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT sweep, max(truncerr) FROM %s WHERE run=? GROUP BY sweep ORDER BY sweep`, tableSpectrum)
	rows, err := s.db.QueryContext(ctx, sqlStr, run)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	errs := make([]float64, 0)
	for rows.Next() {
		var sweep int
		var v float64
		if err := rows.Scan(&sweep, &v); err != nil {
			return nil, errors.Wrap(err, "")
		}
		errs = append(errs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return errs, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, sweep INTEGER, bond INTEGER, truncerr REAL, m INTEGER, PRIMARY KEY (run, sweep, bond)) STRICT`, tableSpectrum)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, sweep INTEGER, bond INTEGER, k INTEGER, v REAL, PRIMARY KEY (run, sweep, bond, k)) STRICT`, tableEig)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
