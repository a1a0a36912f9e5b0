// Package recorder samples named scalar variables at a fixed interval and
// either writes them to a file (record) or overwrites them from a file
// written earlier (replay).
//
// The file is CSV: a header row with the variable names in registration
// order followed by one row per sample. Every variable carries its own
// decimal precision. Paths ending in ".zst" are zstd-compressed.
package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/log"
)

const (
	DefaultInterval  = 0.1
	DefaultPrecision = 6

	// intervalEps absorbs the rounding of accumulated timesteps.
	intervalEps = 1e-9
)

var (
	ErrDuplicateVariable = errors.New("recorder: duplicate variable name")
	ErrNilSource         = errors.New("recorder: nil variable source")
	ErrAlreadyStarted    = errors.New("recorder: variables must be added before Init")
)

// Scalar is the set of value types a variable can be bound to.
type Scalar interface {
	float64 | bool | int
}

// Variable binds a name to live storage owned by someone else.
type Variable[T Scalar] struct {
	name      string
	src       *T
	precision int
}

func (v *Variable[T]) Name() string { return v.name }

func (v *Variable[T]) format() string {
	switch p := any(v.src).(type) {
	case *float64:
		return strconv.FormatFloat(*p, 'f', v.precision, 64)
	case *bool:
		if *p {
			return "1"
		}
		return "0"
	case *int:
		return strconv.Itoa(*p)
	}
	return ""
}

func (v *Variable[T]) parse(s string) error {
	switch p := any(v.src).(type) {
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = f
	case *bool:
		switch s {
		case "1", "true":
			*p = true
		case "0", "false":
			*p = false
		default:
			return fmt.Errorf("invalid bool %q", s)
		}
	case *int:
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*p = i
	}
	return nil
}

type variable interface {
	Name() string
	format() string
	parse(s string) error
}

type Recorder struct {
	mode     data.RecordingMode
	interval float64
	elapsed  float64
	started  bool

	vars  []variable
	names map[string]struct{}

	w         *csv.Writer
	r         *csv.Reader
	closers   []func() error
	replaying bool
	samples   int
	row       []string

	log *log.Logger
}

// New creates an idle recorder sampling every interval seconds. A
// non-positive interval selects DefaultInterval.
func New(interval float64, logger *log.Logger) *Recorder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Recorder{
		interval: interval,
		names:    make(map[string]struct{}),
		log:      logger,
	}
}

// AddVariable registers src under name. Variables are written and read in
// registration order.
func AddVariable[T Scalar](r *Recorder, name string, src *T, precision int) error {
	if r.started {
		return ErrAlreadyStarted
	}
	if src == nil {
		return fmt.Errorf("%w: %s", ErrNilSource, name)
	}
	if _, ok := r.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, name)
	}
	if precision < 0 {
		precision = DefaultPrecision
	}
	r.names[name] = struct{}{}
	r.vars = append(r.vars, &Variable[T]{name: name, src: src, precision: precision})
	return nil
}

// Init opens path for the given mode. Failures are logged and leave the
// recorder idle; they never stop the simulation.
func (r *Recorder) Init(mode data.RecordingMode, path string) {
	r.started = true
	r.elapsed = 0
	r.mode = data.RecordIdle

	switch mode {
	case data.Record:
		if err := r.openRecord(path); err != nil {
			r.log.Warn("recording disabled", "file", path, "error", err)
			r.closeFiles()
			return
		}
		r.mode = data.Record
		r.log.Info("recording", "file", path, "variables", len(r.vars))
	case data.Replay:
		if err := r.openReplay(path); err != nil {
			r.log.Warn("replay disabled", "file", path, "error", err)
			r.closeFiles()
			return
		}
		r.mode = data.Replay
		r.replaying = true
		r.log.Info("replaying", "file", path, "variables", len(r.vars))
	}
}

func (r *Recorder) openRecord(path string) error {
	if path == "" {
		return errors.New("no file path")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, f.Close)

	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		// encoder must close before the file
		r.closers = append([]func() error{zw.Close}, r.closers...)
		w = zw
	}

	r.w = csv.NewWriter(w)
	header := make([]string, len(r.vars))
	for i, v := range r.vars {
		header[i] = v.Name()
	}
	if err := r.w.Write(header); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *Recorder) openReplay(path string) error {
	if path == "" {
		return errors.New("no file path")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, f.Close)

	var rd io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		r.closers = append([]func() error{func() error { zr.Close(); return nil }}, r.closers...)
		rd = zr
	}

	r.r = csv.NewReader(rd)
	r.r.FieldsPerRecord = len(r.vars)
	r.r.ReuseRecord = true

	header, err := r.r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	for i, v := range r.vars {
		if header[i] != v.Name() {
			return fmt.Errorf("column %d is %q, expected %q", i, header[i], v.Name())
		}
	}
	return nil
}

// Step advances the recorder clock by dt and performs at most one sample
// action once the interval has elapsed. It reports whether it did.
func (r *Recorder) Step(dt float64) bool {
	if r.mode == data.RecordIdle {
		return false
	}

	r.elapsed += dt
	if r.elapsed < r.interval-intervalEps {
		return false
	}
	// keep the phase; a backlog longer than one interval is dropped
	r.elapsed -= r.interval
	if r.elapsed >= r.interval-intervalEps {
		r.elapsed = math.Mod(r.elapsed, r.interval)
		if r.elapsed >= r.interval-intervalEps {
			r.elapsed = 0
		}
	}

	switch r.mode {
	case data.Record:
		return r.writeRow()
	case data.Replay:
		return r.readRow()
	}
	return false
}

func (r *Recorder) writeRow() bool {
	if cap(r.row) < len(r.vars) {
		r.row = make([]string, len(r.vars))
	}
	row := r.row[:len(r.vars)]
	for i, v := range r.vars {
		row[i] = v.format()
	}
	if err := r.w.Write(row); err != nil {
		r.fail("recording stopped", err)
		return false
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.fail("recording stopped", err)
		return false
	}
	r.samples++
	return true
}

func (r *Recorder) readRow() bool {
	if !r.replaying {
		return false
	}
	rec, err := r.r.Read()
	if err == io.EOF {
		r.replaying = false
		r.log.Info("replay finished", "samples", r.samples)
		return false
	}
	if err != nil {
		r.replaying = false
		r.log.Warn("replay stopped", "error", err)
		return false
	}
	for i, v := range r.vars {
		if err := v.parse(rec[i]); err != nil {
			r.replaying = false
			r.log.Warn("replay stopped", "variable", v.Name(), "error", err)
			return false
		}
	}
	r.samples++
	return true
}

func (r *Recorder) fail(msg string, err error) {
	r.log.Warn(msg, "error", err)
	r.closeFiles()
	r.mode = data.RecordIdle
}

// IsReplaying reports whether replay mode still has rows to consume.
func (r *Recorder) IsReplaying() bool {
	return r.mode == data.Replay && r.replaying
}

func (r *Recorder) Mode() data.RecordingMode { return r.mode }

// Samples is the number of rows written or replayed so far.
func (r *Recorder) Samples() int { return r.samples }

func (r *Recorder) Variables() []string {
	names := make([]string, len(r.vars))
	for i, v := range r.vars {
		names[i] = v.Name()
	}
	return names
}

// Close flushes and releases the file. The recorder is idle afterwards.
func (r *Recorder) Close() error {
	err := r.closeFiles()
	r.mode = data.RecordIdle
	r.replaying = false
	return err
}

func (r *Recorder) closeFiles() error {
	var errs []error
	if r.w != nil {
		r.w.Flush()
		errs = append(errs, r.w.Error())
		r.w = nil
	}
	r.r = nil
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}
