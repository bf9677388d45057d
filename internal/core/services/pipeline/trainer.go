package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
	"github.com/lcalzada-xor/cvelens/internal/core/services/features"
	"github.com/lcalzada-xor/cvelens/internal/core/services/labeler"
	"github.com/lcalzada-xor/cvelens/internal/core/services/preprocess"
	"github.com/lcalzada-xor/cvelens/internal/core/services/textnorm"
)

// TrainOptions controls the evaluation split.
type TrainOptions struct {
	TestFraction float64
	Seed         int64
	Folds        int
}

// DefaultTrainOptions holds out 20% with seed 42 and runs 3-fold cross-validation.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestFraction: 0.2, Seed: 42, Folds: 3}
}

// Result is the outcome of a training run.
type Result struct {
	Artifact   *Artifact
	Pipeline   *Pipeline
	Evaluation domain.Evaluation
	Stats      domain.TrainingStats
	// Features is the engineered (pre-preprocessing) frame of the fitted rows.
	Features *domain.Frame
}

// Trainer fits pipelines from raw records.
type Trainer struct {
	labeler *labeler.Labeler
	creator *features.Creator
	factory ports.ClassifierFactory
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrainer builds a trainer. A nil scorer selects the built-in vocabulary.
func NewTrainer(scorer *features.Scorer, factory ports.ClassifierFactory, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		labeler: labeler.New(nil),
		creator: features.NewCreator(scorer),
		factory: factory,
		logger:  logger,
		now:     time.Now,
	}
}

// Train cleans and labels records, fits the pipeline on the training split, evaluates it
// on the hold-out split and packages the fitted parameters as an artifact.
func (t *Trainer) Train(ctx context.Context, records []domain.CVERecord, opts TrainOptions) (*Result, error) {
	ctx, span := otel.Tracer("pipeline").Start(ctx, "Train")
	defer span.End()

	rows, stats := t.prepare(records)
	span.SetAttributes(attribute.Int("train.rows", len(rows)))
	if len(rows) == 0 {
		return nil, domain.ErrNoTrainingData
	}
	t.logger.Info("Training data prepared",
		"input", stats.Input, "withdrawn", stats.Withdrawn, "labelled", stats.Labelled,
		"bands_derived", stats.BandsDerived, "dropped", stats.Dropped, "rows", stats.Rows)

	train, test := split(rows, opts.TestFraction, opts.Seed)
	p, feat, err := t.fit(train)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	eval, err := t.evaluate(ctx, p, rows, train, test, opts)
	if err != nil {
		return nil, err
	}

	artifact, err := t.artifact(p, len(train), eval)
	if err != nil {
		return nil, err
	}
	p.info = artifact.Info()

	return &Result{Artifact: artifact, Pipeline: p, Evaluation: eval, Stats: stats, Features: feat}, nil
}

// prepare runs cleaning, weak labelling and band derivation, then keeps rows with both targets.
func (t *Trainer) prepare(records []domain.CVERecord) ([]domain.CVERecord, domain.TrainingStats) {
	cleaned, cs := textnorm.CleanRecords(records, textnorm.ModeTraining, t.logger)
	labelled, n := t.labeler.LabelRecords(cleaned)
	stats := domain.TrainingStats{Input: cs.Input, Withdrawn: cs.Withdrawn, Labelled: n}

	rows := make([]domain.CVERecord, 0, len(labelled))
	for _, r := range labelled {
		if r.SeverityBand == "" && r.CVSSScore != nil {
			if band, ok := domain.BandFromScore(*r.CVSSScore); ok {
				r.SeverityBand = band
				stats.BandsDerived++
			}
		}
		if !r.HasTargets() {
			stats.Dropped++
			continue
		}
		rows = append(rows, r)
	}
	stats.Rows = len(rows)
	return rows, stats
}

// fit runs every fit stage on rows and returns the pipeline plus the engineered frame.
func (t *Trainer) fit(rows []domain.CVERecord) (*Pipeline, *domain.Frame, error) {
	frame := domain.FrameFromRecords(rows, true)
	ff, err := t.creator.Fit(frame)
	if err != nil {
		return nil, nil, err
	}
	feat := ff.Transform(frame)

	st, out, err := preprocess.New(preprocess.Options{Logger: t.logger}).Fit(feat.Drop(passThroughColumns...))
	if err != nil {
		return nil, nil, err
	}

	var columns []string
	for _, name := range out.Names() {
		if name != domain.ColAttackType && name != domain.ColSeverityBand {
			columns = append(columns, name)
		}
	}
	X, err := out.Matrix(columns)
	if err != nil {
		return nil, nil, err
	}

	clf := t.factory.New()
	if err := clf.Fit(X, targets(rows)); err != nil {
		return nil, nil, fmt.Errorf("classifier fit: %w", err)
	}

	return &Pipeline{
		features: ff,
		prep:     st,
		clf:      clf,
		columns:  columns,
		logger:   t.logger,
	}, feat, nil
}

func (t *Trainer) artifact(p *Pipeline, trainRows int, eval domain.Evaluation) (*Artifact, error) {
	prep, err := p.prep.MarshalSnapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot preprocessor: %w", err)
	}
	params, err := p.clf.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot classifier: %w", err)
	}
	a := &Artifact{
		Version:        ArtifactVersion,
		ID:             uuid.NewString(),
		CreatedAt:      t.now().UTC(),
		FeatureColumns: p.FeatureColumns(),
		Features:       p.features.Snapshot(),
		Preprocessor:   json.RawMessage(prep),
		Classifier:     ClassifierBlob{Name: p.clf.Name(), Params: json.RawMessage(params)},
		Metrics:        ArtifactMetrics{TrainRows: trainRows},
	}
	if te, ok := eval.Target(domain.ColAttackType); ok {
		a.Metrics.AttackAccuracy = te.TestAccuracy
	}
	if te, ok := eval.Target(domain.ColSeverityBand); ok {
		a.Metrics.SeverityAccuracy = te.TestAccuracy
	}
	return a, nil
}

func targets(rows []domain.CVERecord) [][2]string {
	y := make([][2]string, len(rows))
	for i, r := range rows {
		y[i] = [2]string{string(r.AttackType), string(r.SeverityBand)}
	}
	return y
}

// split shuffles rows with a seeded source and holds out round(n*fraction) of them,
// keeping at least one row on each side when there are two or more.
func split(rows []domain.CVERecord, fraction float64, seed int64) (train, test []domain.CVERecord) {
	n := len(rows)
	nTest := int(math.Round(float64(n) * fraction))
	if n >= 2 {
		nTest = max(1, min(nTest, n-1))
	} else {
		nTest = 0
	}

	idx := rand.New(rand.NewSource(seed)).Perm(n)
	for i, j := range idx {
		if i < nTest {
			test = append(test, rows[j])
		} else {
			train = append(train, rows[j])
		}
	}
	return train, test
}

// Report bundles the run for the exporters.
func (r *Result) Report(generatedBy string) domain.TrainingReport {
	info := r.Artifact.Info()
	return domain.TrainingReport{
		Metadata: domain.ReportMetadata{
			ID:          info.ID,
			Title:       "CVE Classifier Training Report",
			GeneratedAt: time.Now().UTC(),
			GeneratedBy: generatedBy,
		},
		Artifact:   info,
		Stats:      r.Stats,
		Evaluation: r.Evaluation,
		Features:   r.Features,
	}
}
