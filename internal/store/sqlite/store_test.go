package sqlite

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/store"
	"github.com/nao1215/commenthub/internal/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := OpenInMemory(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestOpen_ReappliesNothing(t *testing.T) {
	path := t.TempDir() + "/commenthub.db"

	s1, err := Open(t.Context(), path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })
	require.NoError(t, s2.Ping(t.Context()))
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("JST", 9*60*60))
	a := formatTime(at)
	b := formatTime(at.Add(500 * time.Millisecond))
	require.Len(t, b, len(a))
	require.Less(t, a, b)
	require.Equal(t, "2026-01-01T18:04:05.000000000Z", a)

	parsed, err := parseTime(a)
	require.NoError(t, err)
	require.True(t, parsed.Equal(at))
}

// fakeRow は Scan で固定値を返す行。
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func TestScanNotification_Type(t *testing.T) {
	t.Parallel()

	row := func(typ string) fakeRow {
		return fakeRow{"n1", "u1", typ, "c1", int64(1), formatTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))}
	}

	t.Run("既知の種別は読み込めること", func(t *testing.T) {
		t.Parallel()
		n, err := scanNotification(row("mention"))
		require.NoError(t, err)
		require.Equal(t, domain.NotificationTypeMention, n.Type)
		require.True(t, n.Read)
	})

	t.Run("不明な種別はエラーになること", func(t *testing.T) {
		t.Parallel()
		_, err := scanNotification(row("like"))
		require.Error(t, err)
	})
}
