package preprocess

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// MarshalSnapshot serializes the learned parameters. Floats round-trip exactly.
func (s State) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(s)
}

// RestoreSnapshot decodes a state written by MarshalSnapshot and validates it.
func RestoreSnapshot(data []byte, logger *slog.Logger) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("restore preprocessor: %w", err)
	}
	if err := s.validate(); err != nil {
		return State{}, fmt.Errorf("restore preprocessor: %w", err)
	}
	return s.WithLogger(logger), nil
}

func (s State) validate() error {
	for _, im := range s.Imputers {
		if im.Strategy != StrategyMostFrequent && im.Strategy != StrategyMedian {
			return fmt.Errorf("imputer %q: unknown strategy %q", im.Column, im.Strategy)
		}
	}
	for _, e := range s.Encoders {
		if !sort.StringsAreSorted(e.Categories) {
			return fmt.Errorf("encoder %q: categories not sorted", e.Column)
		}
	}
	for _, sc := range s.Scalers {
		if sc.Min > sc.Max {
			return fmt.Errorf("scaler %q: min %v above max %v", sc.Column, sc.Min, sc.Max)
		}
	}
	return nil
}
