package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/spiritgen/internal/results"
)

type ExportData struct {
	Run      RunMetadata        `json:"run"`
	Energies [][]float64        `json:"energies"`
	MC       []results.MCSample `json:"mc,omitempty"`
}

// Export gathers everything stored for runID.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	energies, err := s.LoadEnergies(runID)
	if err != nil {
		return nil, err
	}
	mc, err := s.LoadMC(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Run: *meta, Energies: energies, MC: mc}, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
