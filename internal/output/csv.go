package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

// WriteCSV writes a header row followed by one row per record, UTF-8 encoded.
func WriteCSV(w io.Writer, records []extract.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
