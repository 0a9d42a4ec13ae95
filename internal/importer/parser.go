package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// Row is one parsed activity line from a provider file.
type Row struct {
	Line        int
	Label       string
	Quantity    float64
	UnitMeasure string
	FactorKey   string
}

// column aliases accepted in the header line, lowercased.
var headerAliases = map[string]string{
	"label":        "label",
	"libelle":      "label",
	"libellé":      "label",
	"description":  "label",
	"quantity":     "quantity",
	"quantite":     "quantity",
	"quantité":     "quantity",
	"qty":          "quantity",
	"qté":          "quantity",
	"unit":         "unit_measure",
	"unit_measure": "unit_measure",
	"unite":        "unit_measure",
	"unité":        "unit_measure",
	"factor_key":   "factor_key",
	"factor":       "factor_key",
	"facteur":      "factor_key",
}

// Parse reads a provider file into rows. Tableau exports arrive Latin-1
// encoded; plain CSV is expected to be UTF-8. The first line must be a
// header naming at least label, quantity and factor_key.
func Parse(r io.Reader, provider Provider) ([]Row, error) {
	if provider == ProviderTableau {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("importer: %w: empty file", shared.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("importer: line %d: %w", line, err)
		}
		row, err := mapRecord(record, columns, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("importer: %w: no data rows", shared.ErrValidation)
	}
	return rows, nil
}

// mapHeader resolves column positions from the header line.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := columns[canonical]; dup {
			return nil, fmt.Errorf("importer: %w: duplicate column %q", shared.ErrValidation, canonical)
		}
		columns[canonical] = i
	}
	for _, required := range []string{"label", "quantity", "factor_key"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("importer: %w: missing column %q", shared.ErrValidation, required)
		}
	}
	return columns, nil
}

func mapRecord(record []string, columns map[string]int, line int) (Row, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	label := field("label")
	if label == "" {
		return Row{}, fmt.Errorf("importer: %w: line %d: empty label", shared.ErrValidation, line)
	}
	rawQuantity := strings.ReplaceAll(field("quantity"), ",", ".")
	quantity, err := strconv.ParseFloat(rawQuantity, 64)
	if err != nil || quantity < 0 {
		return Row{}, fmt.Errorf("importer: %w: line %d: bad quantity %q", shared.ErrValidation, line, field("quantity"))
	}
	factorKey := field("factor_key")
	if factorKey == "" {
		return Row{}, fmt.Errorf("importer: %w: line %d: empty factor_key", shared.ErrValidation, line)
	}

	return Row{
		Line:        line,
		Label:       label,
		Quantity:    quantity,
		UnitMeasure: field("unit_measure"),
		FactorKey:   factorKey,
	}, nil
}
