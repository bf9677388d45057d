package pipeline

import (
	"context"
	"math"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// evaluate scores p on the train and test splits and cross-validates the fit procedure
// on the train split. Class counts cover every fitted row.
func (t *Trainer) evaluate(ctx context.Context, p *Pipeline, all, train, test []domain.CVERecord, opts TrainOptions) (domain.Evaluation, error) {
	eval := domain.Evaluation{TrainRows: len(train), TestRows: len(test)}

	trainAcc, err := accuracy(ctx, p, train)
	if err != nil {
		return eval, err
	}
	testAcc := [2]float64{}
	if len(test) > 0 {
		if testAcc, err = accuracy(ctx, p, test); err != nil {
			return eval, err
		}
	}

	cvMean, cvStd, folds := t.crossValidate(ctx, train, opts)
	eval.Folds = folds

	counts := classCounts(all)
	for i, name := range []string{domain.ColAttackType, domain.ColSeverityBand} {
		eval.Targets = append(eval.Targets, domain.TargetEvaluation{
			Target:        name,
			TrainAccuracy: trainAcc[i],
			TestAccuracy:  testAcc[i],
			CVMean:        cvMean[i],
			CVStd:         cvStd[i],
			ClassCounts:   counts[i],
		})
	}
	return eval, nil
}

// accuracy returns the share of rows whose predicted labels match, per target.
func accuracy(ctx context.Context, p *Pipeline, rows []domain.CVERecord) ([2]float64, error) {
	var acc [2]float64
	if len(rows) == 0 {
		return acc, nil
	}
	preds, _, err := p.Predict(ctx, rows)
	if err != nil {
		return acc, err
	}
	var hits [2]int
	for i, pr := range preds {
		if pr.AttackType == rows[i].AttackType {
			hits[0]++
		}
		if pr.SeverityBand == rows[i].SeverityBand {
			hits[1]++
		}
	}
	for i := range acc {
		acc[i] = float64(hits[i]) / float64(len(rows))
	}
	return acc, nil
}

// crossValidate runs k-fold validation over contiguous folds of rows. It returns zero
// folds when there are fewer rows than folds or any fold cannot be fitted.
func (t *Trainer) crossValidate(ctx context.Context, rows []domain.CVERecord, opts TrainOptions) (mean, std [2]float64, folds int) {
	k := opts.Folds
	if k < 2 || len(rows) < k {
		return mean, std, 0
	}

	scores := make([][2]float64, 0, k)
	for f := 0; f < k; f++ {
		lo, hi := f*len(rows)/k, (f+1)*len(rows)/k
		hold := rows[lo:hi]
		fit := make([]domain.CVERecord, 0, len(rows)-len(hold))
		fit = append(fit, rows[:lo]...)
		fit = append(fit, rows[hi:]...)

		p, _, err := t.fit(fit)
		if err != nil {
			t.logger.Warn("Cross-validation skipped", "fold", f, "error", err)
			return [2]float64{}, [2]float64{}, 0
		}
		acc, err := accuracy(ctx, p, hold)
		if err != nil {
			t.logger.Warn("Cross-validation skipped", "fold", f, "error", err)
			return [2]float64{}, [2]float64{}, 0
		}
		scores = append(scores, acc)
	}

	for i := range mean {
		for _, s := range scores {
			mean[i] += s[i]
		}
		mean[i] /= float64(k)
		for _, s := range scores {
			d := s[i] - mean[i]
			std[i] += d * d
		}
		std[i] = math.Sqrt(std[i] / float64(k))
	}
	return mean, std, k
}

func classCounts(rows []domain.CVERecord) [2]map[string]int {
	counts := [2]map[string]int{{}, {}}
	for _, r := range rows {
		counts[0][string(r.AttackType)]++
		counts[1][string(r.SeverityBand)]++
	}
	return counts
}
