package provision

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
)

//go:embed data/tn_chart.csv
var chartFS embed.FS

const chartPath = "data/tn_chart.csv"

// LoadChart parses the embedded Tunisian chart-of-accounts template.
// Parents always precede children in the file.
func LoadChart() ([]ChartAccount, error) {
	f, err := chartFS.Open(chartPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChartImport, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrChartImport, err)
	}
	if len(header) != 6 || header[0] != "code" {
		return nil, fmt.Errorf("%w: unexpected header", ErrChartImport)
	}

	var out []ChartAccount
	seen := map[string]bool{"": true}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChartImport, err)
		}
		acc := ChartAccount{
			Code:       record[0],
			Name:       record[1],
			ParentCode: record[2],
			IsGroup:    record[3] == "1",
			RootType:   record[4],
			TaxKind:    record[5],
		}
		if acc.Code == "" || acc.Name == "" {
			return nil, fmt.Errorf("%w: row missing code or name", ErrChartImport)
		}
		if seen[acc.Code] {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrChartImport, acc.Code)
		}
		if !seen[acc.ParentCode] {
			return nil, fmt.Errorf("%w: account %s references unknown parent %s", ErrChartImport, acc.Code, acc.ParentCode)
		}
		seen[acc.Code] = true
		out = append(out, acc)
	}
	return out, nil
}
