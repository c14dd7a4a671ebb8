package postgres

import "time"

// RocRecord is one cell of a history row: the RoC of a single option column
// at one aggregation boundary.
type RocRecord struct {
	ID          uint    `gorm:"primaryKey"`
	SessionDate string  `gorm:"size:10;not null;uniqueIndex:idx_roc_cell"`
	TimeLabel   string  `gorm:"size:8;not null;uniqueIndex:idx_roc_cell"`
	Instrument  string  `gorm:"size:32;not null;uniqueIndex:idx_roc_cell"` // display column, e.g. "60100 ce"
	Value       string  `gorm:"size:16;not null"`                         // as rendered, e.g. "20.00%"
	Percent     float64 `gorm:"not null"`
	RunID       string  `gorm:"size:36;index"`
	CreatedAt   time.Time
}

func (RocRecord) TableName() string {
	return "oi_roc"
}
