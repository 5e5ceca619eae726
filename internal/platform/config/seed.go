package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Seed is a YAML instantiate document applied to a store that has not been
// instantiated yet.
//
//	sender: tp1originator
//	bind_name: wf.pb
//	contract_name: warehouse facility
//	facility:
//	  originator: tp1originator
//	  ...
type Seed struct {
	Sender                string `yaml:"sender"`
	domain.InstantiateMsg `yaml:",inline"`
}

// LoadSeed reads and decodes a seed file. Unknown keys are rejected.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) (Seed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return Seed{}, errors.New("decode seed: empty document")
		}
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	if seed.Sender == "" {
		return Seed{}, errors.New("seed sender required")
	}
	return seed, nil
}
