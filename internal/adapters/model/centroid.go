// Package model provides the classifier behind ports.Classifier: one nearest-centroid
// model per output, fitted independently.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// CentroidName identifies the nearest-centroid classifier in artifacts.
const CentroidName = "nearest_centroid"

// ErrNotTrained is returned by Predict before Fit.
var ErrNotTrained = errors.New("classifier not trained")

// centroidSet is the fitted model of one output. Labels are sorted; Centroids[i] is the
// mean feature vector of the rows labelled Labels[i].
type centroidSet struct {
	Labels    []string    `json:"labels"`
	Centroids [][]float64 `json:"centroids"`
}

// Centroid is a multi-output nearest-centroid classifier.
type Centroid struct {
	Width   int            `json:"width"`
	Outputs [2]centroidSet `json:"outputs"`
}

// NewCentroid returns an untrained classifier.
func NewCentroid() *Centroid {
	return &Centroid{}
}

// Name implements ports.Classifier.
func (c *Centroid) Name() string { return CentroidName }

// Fit learns one centroid per label and output.
func (c *Centroid) Fit(X [][]float64, Y [][2]string) error {
	if len(X) == 0 {
		return errors.New("fit: no rows")
	}
	if len(X) != len(Y) {
		return fmt.Errorf("fit: %d feature rows, %d label rows", len(X), len(Y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("fit: row %d has %d features, want %d", i, len(row), width)
		}
	}

	var outputs [2]centroidSet
	for out := range outputs {
		sums := make(map[string][]float64)
		counts := make(map[string]int)
		for i, row := range X {
			label := Y[i][out]
			sum, ok := sums[label]
			if !ok {
				sum = make([]float64, width)
				sums[label] = sum
			}
			for j, x := range row {
				sum[j] += x
			}
			counts[label]++
		}

		labels := make([]string, 0, len(sums))
		for l := range sums {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		set := centroidSet{Labels: labels, Centroids: make([][]float64, len(labels))}
		for i, l := range labels {
			mean := sums[l]
			for j := range mean {
				mean[j] /= float64(counts[l])
			}
			set.Centroids[i] = mean
		}
		outputs[out] = set
	}

	c.Width = width
	c.Outputs = outputs
	return nil
}

// Predict assigns every row the label of the nearest centroid, per output. Equidistant
// centroids resolve to the smallest label.
func (c *Centroid) Predict(X [][]float64) ([][2]string, error) {
	if len(c.Outputs[0].Labels) == 0 {
		return nil, ErrNotTrained
	}
	preds := make([][2]string, len(X))
	for i, row := range X {
		if len(row) != c.Width {
			return nil, fmt.Errorf("predict: row %d has %d features, want %d", i, len(row), c.Width)
		}
		for out, set := range c.Outputs {
			preds[i][out] = set.nearest(row)
		}
	}
	return preds, nil
}

func (s centroidSet) nearest(row []float64) string {
	best, bestDist := 0, math.Inf(1)
	for i, centroid := range s.Centroids {
		d := 0.0
		for j, x := range row {
			diff := x - centroid[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.Labels[best]
}

// Snapshot implements ports.Classifier.
func (c *Centroid) Snapshot() ([]byte, error) {
	return json.Marshal(c)
}

// Factory builds and restores Centroid classifiers.
type Factory struct{}

var _ ports.ClassifierFactory = Factory{}

// New implements ports.ClassifierFactory.
func (Factory) New() ports.Classifier {
	return NewCentroid()
}

// Restore implements ports.ClassifierFactory.
func (Factory) Restore(name string, snapshot []byte) (ports.Classifier, error) {
	if name != CentroidName {
		return nil, fmt.Errorf("restore classifier: unsupported model %q", name)
	}
	c := NewCentroid()
	if err := json.Unmarshal(snapshot, c); err != nil {
		return nil, fmt.Errorf("restore classifier: %w", err)
	}
	for out, set := range c.Outputs {
		if len(set.Labels) == 0 || len(set.Labels) != len(set.Centroids) {
			return nil, fmt.Errorf("restore classifier: output %d is malformed", out)
		}
		for _, centroid := range set.Centroids {
			if len(centroid) != c.Width {
				return nil, fmt.Errorf("restore classifier: output %d centroid width mismatch", out)
			}
		}
	}
	return c, nil
}
