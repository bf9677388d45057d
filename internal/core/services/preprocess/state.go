// Package preprocess learns and replays the impute, encode and scale stages that turn
// a feature frame into classifier input. Fitting returns new State values; a fitted
// State is never mutated and may be shared across goroutines.
package preprocess

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Options configures a fresh State.
type Options struct {
	// Targets are excluded from imputation and scaling, and from encoding unless
	// EncodeTargets is set. Nil selects domain.TargetColumns.
	Targets       []string
	EncodeTargets bool
	Logger        *slog.Logger
}

// State holds the learned parameters of every stage. Only the exported fields are
// persisted.
type State struct {
	Targets       []string  `json:"targets"`
	EncodeTargets bool      `json:"encode_targets"`
	Imputers      []Imputer `json:"imputers"`
	Encoders      []Encoder `json:"encoders"`
	Scalers       []Scaler  `json:"scalers"`

	logger *slog.Logger
}

// New returns an empty State.
func New(opts Options) State {
	targets := opts.Targets
	if targets == nil {
		targets = domain.TargetColumns
	}
	return State{
		Targets:       slices.Clone(targets),
		EncodeTargets: opts.EncodeTargets,
		logger:        opts.Logger,
	}
}

// WithLogger returns a copy of s logging through l. Used after restoring a snapshot.
func (s State) WithLogger(l *slog.Logger) State {
	s.logger = l
	return s
}

// Fitted reports whether any stage holds learned parameters.
func (s State) Fitted() bool {
	return len(s.Imputers)+len(s.Encoders)+len(s.Scalers) > 0
}

// Encoder returns the fitted encoder of a column.
func (s State) Encoder(column string) (Encoder, bool) {
	for _, e := range s.Encoders {
		if e.Column == column {
			return e, true
		}
	}
	return Encoder{}, false
}

func (s State) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s State) isTarget(name string) bool {
	return slices.Contains(s.Targets, name)
}

// FitImpute learns one imputer per non-target column. A column with no observed value
// fails with a *MalformedInputError.
func (s State) FitImpute(f *domain.Frame) (State, error) {
	next := s
	next.Imputers = nil
	for _, name := range f.Names() {
		if s.isTarget(name) {
			continue
		}
		c, _ := f.Column(name)
		im, err := fitImputer(c)
		if err != nil {
			return s, err
		}
		next.Imputers = append(next.Imputers, im)
	}
	return next, nil
}

// FitEncode learns one encoder per text column. Targets take part only with EncodeTargets.
func (s State) FitEncode(f *domain.Frame) State {
	next := s
	next.Encoders = nil
	for _, name := range f.Names() {
		if s.isTarget(name) && !s.EncodeTargets {
			continue
		}
		c, _ := f.Column(name)
		if c.Kind != domain.KindText {
			continue
		}
		next.Encoders = append(next.Encoders, fitEncoder(c))
	}
	return next
}

// FitScale learns min and max of every numeric non-target column.
func (s State) FitScale(f *domain.Frame) State {
	next := s
	next.Scalers = nil
	for _, name := range f.Names() {
		if s.isTarget(name) {
			continue
		}
		c, _ := f.Column(name)
		if c.Kind != domain.KindNumeric {
			continue
		}
		next.Scalers = append(next.Scalers, fitScaler(c))
	}
	return next
}

// Fit runs the three stages in order, each fitted on the output of the previous one,
// and returns the fitted state together with the transformed training frame.
func (s State) Fit(f *domain.Frame) (State, *domain.Frame, error) {
	if f.Len() == 0 {
		return s, nil, fmt.Errorf("fit preprocessor: %w", domain.ErrNoTrainingData)
	}
	var diag domain.Diagnostics

	st, err := s.FitImpute(f)
	if err != nil {
		return s, nil, fmt.Errorf("fit preprocessor: %w", err)
	}
	if f, err = st.impute(f, &diag); err != nil {
		return s, nil, err
	}

	st = st.FitEncode(f)
	if f, err = st.encode(f, &diag); err != nil {
		return s, nil, err
	}

	st = st.FitScale(f)
	if f, err = st.scale(f, &diag); err != nil {
		return s, nil, err
	}
	return st, f, nil
}

// Transform replays the learned stages on a new batch without refitting. Fitted columns
// absent from the batch are skipped and reported in the diagnostics, as are unseen
// categories. Columns the state knows nothing about pass through untouched. The only
// errors are an unfitted state and a column whose kind contradicts the fitted one.
func (s State) Transform(f *domain.Frame) (*domain.Frame, domain.Diagnostics, error) {
	var diag domain.Diagnostics
	if !s.Fitted() {
		return nil, diag, fmt.Errorf("transform: %w", domain.ErrNotFitted)
	}

	out, err := s.impute(f, &diag)
	if err != nil {
		return nil, diag, err
	}
	if out, err = s.encode(out, &diag); err != nil {
		return nil, diag, err
	}
	if out, err = s.scale(out, &diag); err != nil {
		return nil, diag, err
	}

	sort.Strings(diag.MissingColumns)
	if len(diag.MissingColumns) > 0 {
		s.log().Warn("Fitted columns missing from batch", "columns", diag.MissingColumns)
	}
	for col, n := range diag.UnseenCategories {
		s.log().Warn("Unseen categories mapped to unknown code", "column", col, "count", n)
	}
	return out, diag, nil
}

func (s State) impute(f *domain.Frame, diag *domain.Diagnostics) (*domain.Frame, error) {
	for _, im := range s.Imputers {
		c, ok := f.Column(im.Column)
		if !ok {
			diag.MissingColumns = appendUnique(diag.MissingColumns, im.Column)
			continue
		}
		if c.Kind != im.Kind {
			return nil, kindMismatch("impute", c, im.Kind)
		}
		filled, n := im.apply(c)
		if n > 0 {
			if diag.ImputedCells == nil {
				diag.ImputedCells = make(map[string]int)
			}
			diag.ImputedCells[im.Column] += n
		}
		f = f.WithColumn(filled)
	}
	return f, nil
}

func (s State) encode(f *domain.Frame, diag *domain.Diagnostics) (*domain.Frame, error) {
	for _, e := range s.Encoders {
		c, ok := f.Column(e.Column)
		if !ok {
			diag.MissingColumns = appendUnique(diag.MissingColumns, e.Column)
			continue
		}
		if c.Kind != domain.KindText {
			return nil, kindMismatch("encode", c, domain.KindText)
		}
		encoded, unseen := e.apply(c)
		if unseen > 0 {
			if diag.UnseenCategories == nil {
				diag.UnseenCategories = make(map[string]int)
			}
			diag.UnseenCategories[e.Column] += unseen
		}
		f = f.WithColumn(encoded)
	}
	return f, nil
}

func (s State) scale(f *domain.Frame, diag *domain.Diagnostics) (*domain.Frame, error) {
	for _, sc := range s.Scalers {
		c, ok := f.Column(sc.Column)
		if !ok {
			diag.MissingColumns = appendUnique(diag.MissingColumns, sc.Column)
			continue
		}
		if c.Kind != domain.KindNumeric {
			return nil, kindMismatch("scale", c, domain.KindNumeric)
		}
		f = f.WithColumn(sc.apply(c))
	}
	return f, nil
}

func kindMismatch(stage string, c *domain.Column, want domain.ColumnKind) error {
	return &MalformedInputError{
		Column: c.Name,
		Stage:  stage,
		Reason: fmt.Sprintf("column is %s, fitted as %s", c.Kind, want),
	}
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
