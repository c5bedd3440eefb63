package device

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	id     string
	writes int
	err    error
}

func (m *mapStore) DeviceID(context.Context) (string, bool, error) {
	return m.id, m.id != "", m.err
}

func (m *mapStore) SetDeviceID(_ context.Context, id string) error {
	m.writes++
	m.id = id
	return nil
}

func TestProviderGeneratesOnce(t *testing.T) {
	st := &mapStore{}
	p := NewProvider(st)
	p.now = func() time.Time { return time.UnixMilli(1_714_566_600_000) }

	id, err := p.ID(context.Background())
	require.NoError(t, err)
	assert.True(t, Valid(id), "id %q", id)
	assert.True(t, strings.HasPrefix(id, "device_1714566600000_"))

	again, err := p.ID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, st.writes)
}

func TestProviderStableAcrossRuns(t *testing.T) {
	st := &mapStore{}
	first, err := NewProvider(st).ID(context.Background())
	require.NoError(t, err)

	second, err := NewProvider(st).ID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.writes)
}

func TestProviderKeepsForeignIDs(t *testing.T) {
	st := &mapStore{id: "legacy-browser-id"}
	id, err := NewProvider(st).ID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "legacy-browser-id", id)
	assert.Zero(t, st.writes)
}

func TestProviderStoreError(t *testing.T) {
	st := &mapStore{err: errors.New("disk gone")}
	_, err := NewProvider(st).ID(context.Background())
	assert.Error(t, err)
}

func TestNewIsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for range 100 {
		id := New(now)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestLabel(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.Local)
	id := "device_" + strconv.FormatInt(at.UnixMilli(), 10) + "_abc1234"
	assert.Equal(t, "device 2024-05-01 12:30 (abc1234)", Label(id))
	assert.Equal(t, "server_seed", Label("server_seed"))
	assert.Equal(t, "device_12_ABCDEFG", Label("device_12_ABCDEFG"))
}
