package history

import "context"

// Sink receives rows appended since its previous Flush. Flush is called from
// the consumer loop after the daily file has been written.
type Sink interface {
	Name() string
	Flush(ctx context.Context, date string, rows []Row) error
}

// Archiver is implemented by sinks that keep a copy of each day's file.
// Archive runs on rollover and on shutdown, after the final persist.
type Archiver interface {
	Archive(ctx context.Context, date, path string) error
}
