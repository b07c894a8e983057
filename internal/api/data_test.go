package api

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func TestDataRoundTrip(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	v, err := f.api.GetData(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, f.api.SetData(ctx, "token", "abc"))
	assert.True(t, f.api.IsDataDirty())
	require.NoError(t, f.api.SaveData(ctx, false))
	assert.False(t, f.api.IsDataDirty())
	assert.JSONEq(t, `{"token":"abc"}`, f.storage.data)

	next := New(Config{Inner: &fakeInner{}, Storage: f.storage, Results: &sink{}, Tracer: &traceLog{}})
	v, err = next.GetData(ctx, "token", nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestSetDataDirtyCheck(t *testing.T) {
	f := newFixture(nil)
	f.storage.data = `{"n":1,"s":"x","o":{"a":1}}`
	ctx := context.Background()

	require.NoError(t, f.api.SetData(ctx, "n", 1))
	require.NoError(t, f.api.SetData(ctx, "s", "x"))
	assert.False(t, f.api.IsDataDirty())

	require.NoError(t, f.api.SetData(ctx, "o", map[string]interface{}{"a": 1.0}))
	assert.True(t, f.api.IsDataDirty())
}

func TestSaveDataSkipsClean(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	require.NoError(t, f.api.SaveData(ctx, false))
	assert.Equal(t, 0, f.storage.saves)

	require.NoError(t, f.api.SaveData(ctx, true))
	assert.Equal(t, 1, f.storage.saves)
	assert.Equal(t, "{}", f.storage.data)
}

func TestClearData(t *testing.T) {
	f := newFixture(nil)
	f.storage.data = `{"a":1}`
	ctx := context.Background()

	v, err := f.api.GetData(ctx, "a", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	f.api.ClearData()
	assert.True(t, f.api.IsDataDirty())
	v, err = f.api.GetData(ctx, "a", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCookiesSaveRestore(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	sid := "s1"
	require.NoError(t, f.api.SetCookie(ctx, ".example.com", "sid", &sid, types.CookieParams{Path: "/"}))

	require.NoError(t, f.api.SaveCookies(ctx, ""))
	require.NoError(t, f.api.SaveData(ctx, false))
	assert.Contains(t, f.storage.data, CookiesKey)

	next := newFixture(nil)
	next.storage.data = f.storage.data
	require.NoError(t, next.api.RestoreCookies(ctx, ""))

	v, ok, err := next.api.GetCookie(ctx, "sid", CookieQuery{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s1", v)
}

func TestRestoreCookiesWithoutSaved(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.api.RestoreCookies(context.Background(), "nothing"))
	cookies, err := f.api.GetCookies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestGetCookieFromList(t *testing.T) {
	f := newFixture(nil)
	list := []types.Cookie{
		{Name: "a", Domain: "www.example.com", Path: "/app", Value: "1"},
		{Name: "a", Domain: "example.com", Path: "/", Value: "2"},
	}

	tests := []struct {
		name   string
		query  CookieQuery
		value  string
		exists bool
	}{
		{"first by name", CookieQuery{All: list}, "1", true},
		{"by domain", CookieQuery{All: list, Domain: "example.com"}, "2", true},
		{"by path", CookieQuery{All: list, Path: "/other"}, "2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := f.api.GetCookie(context.Background(), "a", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

// blockingStorage holds every load until release is closed
type blockingStorage struct {
	release chan struct{}
	loads   atomic.Int32
}

func (b *blockingStorage) LoadData(ctx context.Context) (string, error) {
	b.loads.Add(1)
	select {
	case <-b.release:
		return `{"seed":true}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingStorage) SaveData(context.Context, string) error { return nil }

func TestConcurrentAccessSharesOneLoad(t *testing.T) {
	store := &blockingStorage{release: make(chan struct{})}
	a := New(Config{Inner: &fakeInner{}, Storage: store, Results: &sink{}, Tracer: &traceLog{}})
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- a.SetData(ctx, fmt.Sprintf("k%d", i), float64(i))
		}(i)
		go func() {
			defer wg.Done()
			_, err := a.GetData(ctx, "seed", nil)
			errs <- err
		}()
	}
	close(store.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), store.loads.Load())

	for i := 0; i < workers; i++ {
		v, err := a.GetData(ctx, fmt.Sprintf("k%d", i), nil)
		require.NoError(t, err)
		assert.Equal(t, float64(i), v)
	}
	v, err := a.GetData(ctx, "seed", nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.True(t, a.IsDataDirty())
}

func TestGetDataStoredNil(t *testing.T) {
	f := newFixture(nil)
	f.storage.data = `{"token":null}`
	ctx := context.Background()

	v, err := f.api.GetData(ctx, "token", "fallback")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, ok, err := f.api.LookupData(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err = f.api.GetData(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}
