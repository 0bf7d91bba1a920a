package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"butternut/internal/domain/client"
)

var (
	ErrEmptyFile      = errors.New("uploaded file is empty")
	ErrNoEmailColumn  = errors.New("uploaded file has no email column")
	ErrMalformedInput = errors.New("uploaded file is not valid CSV")
)

// ParseCustomerCSV turns an uploaded CSV stream into an ordered batch of
// customer records. The header row names the attributes; an "email" column
// is required. Rows with a deviating field count are dropped, everything
// else is passed through untouched so the reconciler can judge it.
func ParseCustomerCSV(r io.Reader) ([]client.CustomerRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, ErrMalformedInput
	}

	emailIdx := -1
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		columns[i] = name
		if name == "email" {
			emailIdx = i
		}
	}
	if emailIdx < 0 {
		return nil, ErrNoEmailColumn
	}

	var batch []client.CustomerRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				continue
			}
			return nil, ErrMalformedInput
		}

		rec := client.CustomerRecord{Email: client.NormalizeEmail(row[emailIdx])}
		attrs := make(map[string]string, len(row)-1)
		for i, val := range row {
			if i == emailIdx || columns[i] == "" {
				continue
			}
			attrs[columns[i]] = strings.TrimSpace(val)
		}
		if len(attrs) > 0 {
			rec.Attributes = attrs
		}
		batch = append(batch, rec)
	}

	return batch, nil
}
