package postgres

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"oiroc/internal/history"

	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// Name identifies the client as a history sink.
func (p *PostgresClient) Name() string { return "postgres" }

// Flush mirrors rows into the oi_roc table. Cells already stored for the same
// date, time and column are skipped, so a retried flush is harmless.
func (p *PostgresClient) Flush(ctx context.Context, date string, rows []history.Row) error {
	records, err := ToRocRecords(p.runID, date, rows)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "session_date"},
			{Name: "time_label"},
			{Name: "instrument"},
		},
		DoNothing: true,
	}).CreateInBatches(records, insertBatchSize)

	return tx.Error
}

// GetRows returns the stored cells of one session, ordered by time and column.
func (p *PostgresClient) GetRows(ctx context.Context, date string) ([]RocRecord, error) {
	var records []RocRecord
	err := p.DB.WithContext(ctx).
		Where("session_date = ?", date).
		Order("time_label, instrument").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteBefore drops every session older than date.
func (p *PostgresClient) DeleteBefore(ctx context.Context, date string) error {
	return p.DB.WithContext(ctx).
		Where("session_date < ?", date).
		Delete(&RocRecord{}).Error
}

// ToRocRecords flattens history rows into one record per present cell.
// Absent cells produce no record.
func ToRocRecords(runID, date string, rows []history.Row) ([]*RocRecord, error) {
	var records []*RocRecord
	for _, row := range rows {
		cols := make([]string, 0, len(row.Values))
		for col := range row.Values {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			value := row.Values[col]
			if value == "" {
				continue
			}
			pct, err := ParsePercent(value)
			if err != nil {
				return nil, fmt.Errorf("row %s column %s: %w", row.Timestamp, col, err)
			}
			records = append(records, &RocRecord{
				SessionDate: date,
				TimeLabel:   row.Timestamp,
				Instrument:  col,
				Value:       value,
				Percent:     pct,
				RunID:       runID,
			})
		}
	}
	return records, nil
}

// ParsePercent reads a rendered RoC such as "-3.25%".
func ParsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	return v, nil
}
