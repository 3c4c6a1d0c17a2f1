package filecache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Ticker string `json:"ticker"`
	Body   string `json:"body"`
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	path := filepath.Join(t.TempDir(), "2024-Q4_analysis.json")

	var got doc
	ok, err := s.Load(path, &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Exists(path))

	require.NoError(t, s.Save(path, doc{Ticker: "PLTR", Body: "분석"}))
	assert.True(t, s.Exists(path))

	ok, err = s.Load(path, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, doc{Ticker: "PLTR", Body: "분석"}, got)

	require.NoError(t, s.Save(path, doc{Ticker: "PLTR", Body: "v2"}))
	_, err = s.Load(path, &got)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Body)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got doc
	ok, err := NewStore().Load(path, &got)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestStoreSaveMissingDir(t *testing.T) {
	err := NewStore().Save(filepath.Join(t.TempDir(), "nope", "x.json"), doc{})
	assert.Error(t, err)
}

func TestLockSerialisesSameKey(t *testing.T) {
	s := NewStore()
	path := filepath.Join(t.TempDir(), "k.json")

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(path)
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.locks, "locks are released once unused")
}

func TestLockIndependentKeys(t *testing.T) {
	s := NewStore()
	unlockA := s.Lock("a.json")
	done := make(chan struct{})
	go func() {
		unlock := s.Lock("b.json")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b.json blocked behind a.json")
	}
	unlockA()
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mk := func(rel string, age time.Duration) string {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
		mt := now.Add(-age)
		require.NoError(t, os.Chtimes(p, mt, mt))
		return p
	}
	old := mk("PLTR/2023-Q1_analysis.json", 40*24*time.Hour)
	fresh := mk("PLTR/2024-Q1_analysis.json", 24*time.Hour)
	pdf := mk("PLTR/2023-Q1.pdf", 400*24*time.Hour)
	nested := mk("NVDA/2022-Q4_analysis.json", 90*24*time.Hour)

	n, err := Prune(root, "_analysis.json", 30*24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoFileExists(t, old)
	assert.NoFileExists(t, nested)
	assert.FileExists(t, fresh)
	assert.FileExists(t, pdf)
}

func TestPruneEdgeCases(t *testing.T) {
	n, err := Prune(filepath.Join(t.TempDir(), "missing"), ".json", time.Hour, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = Prune(t.TempDir(), ".json", 0, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPruneJob(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "x_analysis.json")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))

	job := &PruneJob{Root: root, Suffix: "_analysis.json", MaxAge: time.Hour, now: func() time.Time { return time.Now().Add(2 * time.Hour) }}
	assert.Equal(t, "prune:"+root, job.Name())
	require.NoError(t, job.Run())
	assert.NoFileExists(t, p)
}

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", FuncJob{JobName: "noop", Fn: func() error { return nil }}))
	assert.Error(t, s.AddJob("not a schedule", FuncJob{JobName: "bad"}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	s.Stop()
}

func TestSchedulerRunLogsFailure(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	called := false
	s.run(FuncJob{JobName: "fail", Fn: func() error { called = true; return errors.New("disk full") }})
	assert.True(t, called)
}
