package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/fumin/tnet/exactdiag"
	"github.com/fumin/tnet/itensor"
	"github.com/fumin/tnet/mps"
	"github.com/fumin/tnet/spectrumdb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	fnameSpectrum = "spectrum.db"
)

var (
	runDir     = flag.String("d", filepath.Join("runs", "tnet"), "run directory")
	configPath = flag.String("c", "", "YAML config file, the default runs are used if empty")
)

// Sweep is the schedule of a DMRG run.
type Sweep struct {
	N       int       `yaml:"n"`
	Maxm    []int     `yaml:"maxm"`
	Cutoff  []float64 `yaml:"cutoff"`
	Noise   []float64 `yaml:"noise"`
	Denmat  bool      `yaml:"denmat"`
	Lanczos int       `yaml:"lanczos"`
}

// Run is a set of chains to solve, one for each combination of length, field and bond dimension.
type Run struct {
	L []int     `yaml:"l"`
	H []float64 `yaml:"h"`
	B []int     `yaml:"b"`

	// Exact compares the DMRG energy with exact diagonalization.
	Exact bool  `yaml:"exact"`
	Sweep Sweep `yaml:"sweep"`
}

type File struct {
	Runs []Run `yaml:"runs"`
}

type Config struct {
	id    string
	l     int
	h     float64
	b     int
	exact bool
	sweep Sweep
}

func readConfigs(b []byte) ([]Config, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrap(err, "")
	}
	configs := make([]Config, 0)
	for i, r := range f.Runs {
		if len(r.L) == 0 || len(r.H) == 0 || len(r.B) == 0 {
			return nil, errors.Errorf("run %d: l, h and b must be non-empty %#v", i, r)
		}
		for _, l := range r.L {
			if l < 2 {
				return nil, errors.Errorf("run %d: chain length %d", i, l)
			}
			for _, h := range r.H {
				for _, b := range r.B {
					configs = append(configs, Config{id: uuid.NewString(), l: l, h: h, b: b, exact: r.Exact, sweep: r.Sweep})
				}
			}
		}
	}
	return configs, nil
}

func defaultConfigs() []Config {
	hLogs := []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 1.5, 2}
	// Add negative logs, so that hLogs becomes {-2, -1, tcLog, 1, 2...}.
	hLogsLen := len(hLogs)
	for i := range hLogsLen {
		hLogs = append(hLogs, -hLogs[i])
	}
	// tcGuess is a guess of the critical field.
	const tcGuess float64 = 1
	tcLog := math.Log10(tcGuess)
	for i := range hLogs {
		hLogs[i] += tcLog
	}
	slices.Sort(hLogs)

	r := Run{L: []int{25}, B: []int{2, 4, 8}}
	for _, hl := range hLogs {
		r.H = append(r.H, math.Pow(10, hl))
	}
	b, err := yaml.Marshal(File{Runs: []Run{r}})
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	configs, err := readConfigs(b)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return configs
}

// options returns the DMRG options of cfg, whose maximum bond dimension is capped at cfg.b.
func (cfg Config) options() mps.DMRGOptions {
	opt := mps.NewDMRGOptions().Quiet(true)
	if cfg.sweep.N > 0 {
		opt = opt.Sweeps(cfg.sweep.N)
	}
	maxm := []int{cfg.b}
	if len(cfg.sweep.Maxm) > 0 {
		maxm = make([]int, 0, len(cfg.sweep.Maxm))
		for _, m := range cfg.sweep.Maxm {
			maxm = append(maxm, min(m, cfg.b))
		}
	}
	opt = opt.Maxm(maxm...)
	if len(cfg.sweep.Cutoff) > 0 {
		opt = opt.Cutoff(cfg.sweep.Cutoff...)
	}
	if len(cfg.sweep.Noise) > 0 {
		opt = opt.Noise(cfg.sweep.Noise...)
	}
	if cfg.sweep.Lanczos > 0 {
		opt = opt.Lanczos(cfg.sweep.Lanczos, 1e-12)
	}
	return opt.Denmat(cfg.sweep.Denmat)
}

type Statistics struct {
	cfg Config
	e0  float64
	m   float64
}

func solve(db *spectrumdb.DB, cfg Config) (Statistics, error) {
	h := mps.Ising(cfg.l, cfg.h)
	mz2 := mps.MagnetizationZ2(h.Sites())

	// Search for ground state.
	// A bond is decomposed twice per sweep, and the database keeps the spectrum of the right to left pass.
	state := mps.RandMPS(h, cfg.b)
	var dbErr error
	opt := cfg.options().Observer(func(sweep, bond int, spec itensor.Spectrum) {
		if err := db.Insert(cfg.id, sweep, bond, spec); err != nil && dbErr == nil {
			dbErr = err
		}
	})
	e0, err := mps.DMRG(state, h, opt)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "")
	}
	if dbErr != nil {
		return Statistics{}, errors.Wrap(dbErr, "")
	}

	// Calculate magnetization per spin.
	m := math.Sqrt(mps.Expect(state, mz2)) / float64(cfg.l)

	if cfg.exact {
		exact, _, err := exactdiag.GroundState(exactdiag.TransverseFieldIsing([2]int{cfg.l, 1}, cfg.h))
		if err != nil {
			return Statistics{}, errors.Wrap(err, "")
		}
		log.Printf("%s exact %f dmrg %f diff %.3E", cfg.id, exact, e0, e0-exact)
	}

	return Statistics{cfg: cfg, e0: e0, m: m}, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	configs := defaultConfigs()
	if *configPath != "" {
		b, err := os.ReadFile(*configPath)
		if err != nil {
			return errors.Wrap(err, "")
		}
		configs, err = readConfigs(b)
		if err != nil {
			return errors.Wrap(err, *configPath)
		}
	}

	db, err := spectrumdb.Open(filepath.Join(*runDir, fnameSpectrum))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	statistics := make([]Statistics, 0, len(configs))
	for _, cfg := range configs {
		stat, err := solve(db, cfg)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", cfg))
		}
		statistics = append(statistics, stat)

		truncerrs, err := db.MaxTruncerr(cfg.id)
		if err != nil {
			return errors.Wrap(err, "")
		}
		log.Printf("%s l %d h %f b %d e0 %f m %f truncerr %v", cfg.id, cfg.l, cfg.h, cfg.b, stat.e0, stat.m, truncerrs)
	}

	fmt.Printf("id,l,h,b,e0,m\n")
	for _, s := range statistics {
		fmt.Printf("%s,%d,%f,%d,%f,%f\n", s.cfg.id, s.cfg.l, s.cfg.h, s.cfg.b, s.e0, s.m)
	}

	return nil
}
