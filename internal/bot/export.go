package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/baiserke/promobot/internal/model"
)

const exportFileName = "promo_codes.csv"

// renderLedgerCSV renders the full ledger to CSV with a header row, in the
// column order of the spreadsheet the codes were loaded from.
func renderLedgerCSV(rows []model.PromoCode) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"code", "discount", "expires_at", "assigned_to", "assigned_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{row.Code, row.Discount.String, "", row.AssignedTo.String, ""}
		if row.ExpiresAt.Valid {
			record[2] = row.ExpiresAt.Time.Format("2006-01-02")
		}
		if row.AssignedAt.Valid {
			record[4] = row.AssignedAt.Time.Format(time.RFC3339)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
