package stakingRewards

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ParseSnapshot decodes a YAML snapshot document. A file is complete by
// definition, so omitted sections decode as empty rather than as not loaded.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if s.Projects == nil {
		s.Projects = []*ProjectParameters{}
	}
	if s.Neurons == nil {
		s.Neurons = []*Neuron{}
	}
	if s.Balances == nil {
		s.Balances = []*Balance{}
	}
	if s.ExchangeRates == nil {
		s.ExchangeRates = map[string]decimal.Decimal{}
	}
	return &s, nil
}

// ReadSnapshot decodes a YAML snapshot document from r.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}
