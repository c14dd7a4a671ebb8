package collector

import (
	"oiroc/internal/feed"
	"oiroc/internal/history"
	"oiroc/internal/session"
	"oiroc/pkg/storage/postgres"

	"go.uber.org/zap"
)

type statsSource interface {
	Stats() feed.Stats
}

// logRenderer writes one structured line per appended row.
type logRenderer struct {
	stats  statsSource
	logger *zap.Logger
}

func newLogRenderer(stats statsSource, logger *zap.Logger) *logRenderer {
	return &logRenderer{stats: stats, logger: logger}
}

func (r *logRenderer) Render(row history.Row, view session.View) {
	fields := []zap.Field{
		zap.String("time", row.Timestamp),
		zap.String("status", string(view.Status())),
		zap.Stringer("feed", view.FeedState),
		zap.Int("rows", view.TotalRows),
		zap.Int64("ticks", view.TicksApplied),
	}
	if view.HasFuturePrice {
		fields = append(fields, zap.Float64("future", view.FuturePrice))
	}
	if mover, roc, ok := topMover(row, view.Columns); ok {
		fields = append(fields, zap.String("top_column", mover), zap.String("top_roc", roc))
	}
	if r.stats != nil {
		s := r.stats.Stats()
		fields = append(fields, zap.Int64("discarded", s.Discarded), zap.Int64("reconnects", s.Reconnects))
	}
	r.logger.Info("oi roc", fields...)
	r.logger.Debug("oi roc row", zap.Any("values", row.Values))
}

// topMover returns the column with the largest absolute RoC in row. Ties go
// to the earlier column.
func topMover(row history.Row, columns []string) (string, string, bool) {
	best, bestAbs := -1, -1.0
	for i, col := range columns {
		v, ok := row.Values[col]
		if !ok || v == "" {
			continue
		}
		pct, err := postgres.ParsePercent(v)
		if err != nil {
			continue
		}
		if pct < 0 {
			pct = -pct
		}
		if pct > bestAbs {
			best, bestAbs = i, pct
		}
	}
	if best < 0 {
		return "", "", false
	}
	return columns[best], row.Values[columns[best]], true
}
