// Package export renders the sales audit trail as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/fairlead/lead-exchange/internal/domain"
)

var header = []string{
	"sale_id", "inventory_id", "lead_id", "age_bucket", "buyer_id",
	"price", "currency", "sold_at",
}

// WriteSales appends sale rows to w. withHeader controls whether the header
// row is emitted first, so callers can stream pages into one document.
func WriteSales(w io.Writer, sales []domain.Sale, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for _, s := range sales {
		row := []string{
			s.ID.String(),
			s.SlotID.String(),
			s.LeadID.String(),
			sanitizeField(string(s.Bucket)),
			s.BuyerID.String(),
			s.Price.StringFixed(2),
			sanitizeField(s.Currency),
			s.SoldAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sanitizeField defuses spreadsheet formula injection: a leading =, +, -, @,
// tab or CR makes some spreadsheet tools evaluate the cell.
func sanitizeField(v string) string {
	if v == "" {
		return v
	}
	if strings.ContainsAny(string(v[0]), "=+-@\t\r") {
		return "'" + v
	}
	return v
}
