package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/duo/internal/domain"
)

// LoadCSV reads a dataset whose first record is the header. Row ids are the
// 0-based record positions after the header.
func LoadCSV(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty dataset")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	data := domain.NewDataset(header)

	for id := 0; ; id++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", id, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		data.AddRow(id, row)
	}
	return data, nil
}
