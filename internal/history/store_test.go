package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"oiroc/internal/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	fail     error
	flushed  []Row
	archived []string
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Flush(_ context.Context, _ string, rows []Row) error {
	if s.fail != nil {
		return s.fail
	}
	s.flushed = append(s.flushed, rows...)
	return nil
}

func (s *recordingSink) Archive(_ context.Context, date, path string) error {
	s.archived = append(s.archived, date+"="+path)
	return nil
}

func newTestStore(t *testing.T, dir string, now time.Time, sinks ...Sink) (*Store, *calendar.Clock) {
	t.Helper()
	clock, err := calendar.NewClock("Asia/Kolkata", "09:15", "15:30")
	require.NoError(t, err)
	return NewStore(dir, testColumns, clock, 30*time.Second, sinks, zap.NewNop(), now), clock
}

func ist(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2026, 10, day, hour, min, 0, 0, loc)
}

// go test -v --run TestPersistAndRestore
func TestPersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	now := ist(t, 16, 10, 0)

	s, _ := newTestStore(t, dir, now)
	s.Append(Row{Timestamp: "10:00:00", Values: map[string]string{"60100 ce": "20.00%"}})
	s.Append(Row{Timestamp: "10:01:00", Values: map[string]string{"60100 ce": "0.00%"}})
	require.NoError(t, s.Persist(context.Background(), now))

	_, err := os.Stat(s.Path("2026-10-16"))
	require.NoError(t, err)

	restarted, _ := newTestStore(t, dir, now.Add(time.Minute))
	ok, err := restarted.Restore(now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, s.Table().Rows(), restarted.Table().Rows())
	assert.Equal(t, s.Table().Columns(), restarted.Table().Columns())
}

func TestRestoreOutsideTradingHoursStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	now := ist(t, 16, 10, 0)

	s, _ := newTestStore(t, dir, now)
	s.Append(Row{Timestamp: "10:00:00", Values: map[string]string{"60100 ce": "20.00%"}})
	require.NoError(t, s.Persist(context.Background(), now))

	evening := ist(t, 16, 18, 0)
	restarted, _ := newTestStore(t, dir, evening)
	ok, err := restarted.Restore(evening)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, restarted.Table().Len())
}

// go test -v --run TestRestartOutsideTradingHoursKeepsFile
func TestRestartOutsideTradingHoursKeepsFile(t *testing.T) {
	dir := t.TempDir()
	closing := ist(t, 16, 15, 0)

	s, _ := newTestStore(t, dir, closing)
	s.Append(Row{Timestamp: "15:00:00", Values: map[string]string{"60000 ce": "20.00%"}})
	require.NoError(t, s.Persist(context.Background(), closing))
	before, err := os.ReadFile(s.Path("2026-10-16"))
	require.NoError(t, err)

	evening := ist(t, 16, 16, 0)
	sink := &recordingSink{}
	restarted, _ := newTestStore(t, dir, evening, sink)
	ok, err := restarted.Restore(evening)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, restarted.Persist(context.Background(), evening.Add(31*time.Second)))
	require.NoError(t, restarted.Archive(context.Background()))

	after, err := os.ReadFile(restarted.Path("2026-10-16"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Empty(t, sink.archived)

	// new rows on the same date do replace the file
	restarted.Append(Row{Timestamp: "16:01:00", Values: map[string]string{"60000 ce": "1.00%"}})
	require.NoError(t, restarted.Persist(context.Background(), evening.Add(time.Minute)))
	after, err = os.ReadFile(restarted.Path("2026-10-16"))
	require.NoError(t, err)
	assert.Contains(t, string(after), "16:01:00")
}

func TestUnreadableFileSurvivesFailedRestore(t *testing.T) {
	dir := t.TempDir()
	now := ist(t, 16, 10, 0)
	s, _ := newTestStore(t, dir, now)

	garbage := []byte("time,60000 ce\n10:00:00,1.00%,extra\n")
	require.NoError(t, os.WriteFile(s.Path("2026-10-16"), garbage, 0644))

	_, err := s.Restore(now)
	require.Error(t, err)

	require.NoError(t, s.Persist(context.Background(), now.Add(time.Minute)))
	got, err := os.ReadFile(s.Path("2026-10-16"))
	require.NoError(t, err)
	assert.Equal(t, garbage, got)
}

func TestRestoreWithoutFile(t *testing.T) {
	now := ist(t, 16, 10, 0)
	s, _ := newTestStore(t, t.TempDir(), now)

	ok, err := s.Restore(now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "2026-10-16", s.Table().Date())
}

func TestPersistDue(t *testing.T) {
	now := ist(t, 16, 10, 0)
	s, _ := newTestStore(t, t.TempDir(), now)

	assert.False(t, s.PersistDue(now.Add(29*time.Second)))
	assert.True(t, s.PersistDue(now.Add(30*time.Second)))

	require.NoError(t, s.Persist(context.Background(), now.Add(30*time.Second)))
	assert.False(t, s.PersistDue(now.Add(31*time.Second)))
}

func TestPersistFeedsSinksOnce(t *testing.T) {
	now := ist(t, 16, 10, 0)
	sink := &recordingSink{}
	s, _ := newTestStore(t, t.TempDir(), now, sink)

	s.Append(Row{Timestamp: "10:00:00", Values: map[string]string{"60100 ce": "1.00%"}})
	require.NoError(t, s.Persist(context.Background(), now))
	s.Append(Row{Timestamp: "10:01:00", Values: map[string]string{"60100 ce": "2.00%"}})
	require.NoError(t, s.Persist(context.Background(), now))
	require.NoError(t, s.Persist(context.Background(), now))

	require.Len(t, sink.flushed, 2)
	assert.Equal(t, "10:01:00", sink.flushed[1].Timestamp)
}

func TestSinkFailureIsPersistErrorAndRetried(t *testing.T) {
	now := ist(t, 16, 10, 0)
	sink := &recordingSink{fail: errors.New("db down")}
	s, _ := newTestStore(t, t.TempDir(), now, sink)

	s.Append(Row{Timestamp: "10:00:00", Values: map[string]string{"60100 ce": "1.00%"}})
	err := s.Persist(context.Background(), now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersist))
	assert.Equal(t, 1, s.Table().Len())

	sink.fail = nil
	require.NoError(t, s.Persist(context.Background(), now))
	assert.Len(t, sink.flushed, 1)
}

func TestPersistToUnwritableDir(t *testing.T) {
	now := ist(t, 16, 10, 0)
	file, err := os.CreateTemp(t.TempDir(), "not-a-dir")
	require.NoError(t, err)
	file.Close()

	s, _ := newTestStore(t, file.Name(), now)
	s.Append(Row{Timestamp: "10:00:00", Values: map[string]string{"60100 ce": "1.00%"}})

	err = s.Persist(context.Background(), now)
	assert.True(t, errors.Is(err, ErrPersist))
	assert.Equal(t, 1, s.Table().Len())
}

// go test -v --run TestRollover
func TestRollover(t *testing.T) {
	dir := t.TempDir()
	now := ist(t, 16, 15, 0)
	sink := &recordingSink{}
	s, _ := newTestStore(t, dir, now, sink)

	s.Append(Row{Timestamp: "15:00:00", Values: map[string]string{"60100 ce": "1.00%"}})

	rolled, err := s.Rollover(context.Background(), ist(t, 16, 23, 59))
	require.NoError(t, err)
	assert.False(t, rolled)
	assert.True(t, ist(t, 17, 0, 0).Equal(s.RolloverAt()))

	rolled, err = s.Rollover(context.Background(), ist(t, 17, 0, 0))
	require.NoError(t, err)
	assert.True(t, rolled)

	assert.Equal(t, "2026-10-17", s.Table().Date())
	assert.True(t, ist(t, 18, 0, 0).Equal(s.RolloverAt()))
	assert.Equal(t, 0, s.Table().Len())
	assert.Equal(t, []string{"2026-10-16=" + s.Path("2026-10-16")}, sink.archived)

	_, err = os.Stat(s.Path("2026-10-16"))
	assert.NoError(t, err)
}
