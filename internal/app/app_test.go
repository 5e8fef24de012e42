package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emojifix/internal/config"
	"github.com/haytac/emojifix/internal/metrics"
	"github.com/haytac/emojifix/internal/table"
)

const (
	calendar = "\U0001F4C5"
	wave     = "\U0001F44B"
)

// recordingFs records every name opened and can fail Open for chosen paths.
// onOpen, when set, runs before each open outside the lock.
type recordingFs struct {
	afero.Fs
	mu     sync.Mutex
	opened map[string]int
	fail   map[string]error
	onOpen func(name string)
}

func newRecordingFs(base afero.Fs) *recordingFs {
	return &recordingFs{Fs: base, opened: map[string]int{}, fail: map[string]error{}}
}

func (f *recordingFs) Open(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDONLY, 0)
}

func (f *recordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	name = filepath.Clean(name)
	if f.onOpen != nil {
		f.onOpen(name)
	}
	f.mu.Lock()
	f.opened[name]++
	err := f.fail[name]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *recordingFs) openCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened[filepath.Clean(name)]
}

type recordingObserver struct {
	fixed  []string
	failed []string
}

func (o *recordingObserver) Fixed(path string, _ int, _ bool) { o.fixed = append(o.fixed, path) }
func (o *recordingObserver) Failed(path string, _ error)      { o.failed = append(o.failed, path) }

func corrupted(t *testing.T, s string) string {
	t.Helper()
	out, err := table.Corrupt(s, 2)
	require.NoError(t, err)
	return out
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{Root: "src", Pattern: "**/*.jsx", Workers: 1}
}

func TestRun_FixesCorruptedFileAndReportsIt(t *testing.T) {
	fs := afero.NewMemMapFs()
	app := filepath.Join("src", "App.jsx")
	write(t, fs, app, `<Stat icon="`+corrupted(t, calendar)+`" /> <Stat icon="`+corrupted(t, calendar)+`" />`)

	obs := &recordingObserver{}
	report, err := NewRunner(fs, testConfig(), table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `<Stat icon="`+calendar+`" /> <Stat icon="`+calendar+`" />`, read(t, fs, app))
	assert.Equal(t, []string{app}, obs.fixed)
	assert.Empty(t, obs.failed)
	assert.Equal(t, Summary{Inspected: 1, Fixed: 1}, report.Summary)
	require.Len(t, report.Files, 1)
	assert.Equal(t, StatusFixed, report.Files[0].Status)
	assert.Equal(t, 2, report.Files[0].Replacements)
	assert.NoError(t, report.Err())
}

func TestRun_CleanFileIsNotWritten(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.Join("src", "Clean.jsx")
	write(t, base, path, "const x = 'no emoji here';")

	// A read-only fs makes any write attempt fail loudly.
	report, err := NewRunner(afero.NewReadOnlyFs(base), testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Inspected: 1, Unchanged: 1}, report.Summary)
	assert.Equal(t, "const x = 'no emoji here';", read(t, base, path))
}

func TestRun_NonMatchingFilesAreNeverOpened(t *testing.T) {
	base := afero.NewMemMapFs()
	css := filepath.Join("src", "App.css")
	js := filepath.Join("src", "lib", "util.js")
	write(t, base, css, corrupted(t, calendar))
	write(t, base, js, corrupted(t, calendar))
	write(t, base, filepath.Join("src", "App.jsx"), "ok")

	fs := newRecordingFs(base)
	_, err := NewRunner(fs, testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, fs.openCount(css))
	assert.Zero(t, fs.openCount(js))
	assert.Equal(t, corrupted(t, calendar), read(t, base, css))
}

func TestRun_ReadErrorIsReportedAndRunContinues(t *testing.T) {
	base := afero.NewMemMapFs()
	a := filepath.Join("src", "a.jsx")
	b := filepath.Join("src", "b.jsx")
	c := filepath.Join("src", "c.jsx")
	write(t, base, a, corrupted(t, wave))
	write(t, base, b, corrupted(t, wave))
	write(t, base, c, "clean")

	fs := newRecordingFs(base)
	fs.fail[a] = os.ErrPermission

	obs := &recordingObserver{}
	report, err := NewRunner(fs, testConfig(), table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{a}, obs.failed)
	assert.Equal(t, []string{b}, obs.fixed)
	assert.Equal(t, Summary{Inspected: 2, Fixed: 1, Unchanged: 1, Failed: 1}, report.Summary)
	assert.Equal(t, wave, read(t, base, b))

	runErr := report.Err()
	require.Error(t, runErr)
	assert.True(t, IsReadError(runErr))
	assert.False(t, IsWriteError(runErr))
	assert.True(t, errors.Is(runErr, os.ErrPermission))
}

func TestRun_WriteErrorLeavesFileUntouched(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.Join("src", "App.jsx")
	original := "hi " + corrupted(t, wave)
	write(t, base, path, original)

	report, err := NewRunner(afero.NewReadOnlyFs(base), testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, original, read(t, base, path))
	assert.Equal(t, Summary{Inspected: 1, Failed: 1}, report.Summary)
	assert.True(t, IsWriteError(report.Err()))
	assert.NotEmpty(t, report.Files[0].Error)
}

func TestRun_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i, e := range table.DefaultEmoji {
		write(t, fs, filepath.Join("src", "nested", string(rune('a'+i))+".jsx"), "x "+corrupted(t, e)+" y")
	}

	first, err := NewRunner(fs, testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(table.DefaultEmoji), first.Summary.Fixed)

	second, err := NewRunner(fs, testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Summary.Fixed)
	assert.Equal(t, len(table.DefaultEmoji), second.Summary.Unchanged)
}

func TestRun_LenientDecodeStillRepairs(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("src", "Broken.jsx")
	write(t, fs, path, "bad \xff byte, "+corrupted(t, calendar))

	report, err := NewRunner(fs, testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.True(t, report.Files[0].Lenient)
	assert.Equal(t, StatusFixed, report.Files[0].Status)
	assert.Equal(t, "bad � byte, "+calendar, read(t, fs, path))
}

func TestRun_EmptyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("src", 0o755))

	obs := &recordingObserver{}
	report, err := NewRunner(fs, testConfig(), table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, report.Summary)
	assert.Empty(t, obs.fixed)
	assert.Empty(t, obs.failed)
	assert.NoError(t, report.Err())
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	report, err := NewRunner(afero.NewMemMapFs(), testConfig(), table.Default()).Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRun_DryRunDoesNotWrite(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.Join("src", "App.jsx")
	original := corrupted(t, calendar)
	write(t, base, path, original)

	cfg := testConfig()
	cfg.DryRun = true
	obs := &recordingObserver{}
	report, err := NewRunner(afero.NewReadOnlyFs(base), cfg, table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, original, read(t, base, path))
	assert.Equal(t, StatusWouldFix, report.Files[0].Status)
	assert.Equal(t, []string{path}, obs.fixed)
	assert.NoError(t, report.Err())
}

func TestRun_WorkersKeepDiscoveryOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	var want []string
	for i := 0; i < 20; i++ {
		p := filepath.Join("src", string(rune('a'+i))+".jsx")
		write(t, fs, p, corrupted(t, wave))
		want = append(want, p)
	}

	cfg := testConfig()
	cfg.Workers = 4
	obs := &recordingObserver{}
	report, err := NewRunner(fs, cfg, table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, obs.fixed)
	assert.Equal(t, 20, report.Summary.Fixed)
}

func TestRun_ObserverSeesEachFileBeforeTheNextStarts(t *testing.T) {
	base := afero.NewMemMapFs()
	a := filepath.Join("src", "a.jsx")
	b := filepath.Join("src", "b.jsx")
	c := filepath.Join("src", "c.jsx")
	write(t, base, a, corrupted(t, wave))
	write(t, base, b, "clean")
	write(t, base, c, corrupted(t, wave))

	fs := newRecordingFs(base)
	fs.fail[b] = os.ErrPermission
	obs := &recordingObserver{}
	seen := map[string][]string{}
	fs.onOpen = func(name string) {
		if filepath.Ext(name) == ".jsx" {
			if _, ok := seen[name]; !ok {
				seen[name] = append(append([]string{}, obs.fixed...), obs.failed...)
			}
		}
	}

	_, err := NewRunner(fs, testConfig(), table.Default(), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, seen[a])
	assert.Equal(t, []string{a}, seen[b])
	assert.Equal(t, []string{a, b}, seen[c])
	assert.Equal(t, []string{a, c}, obs.fixed)
}

func TestOrderedFlush_EmitsContiguousPrefix(t *testing.T) {
	var emitted []string
	f := newOrderedFlush(3, func(res FileResult) { emitted = append(emitted, res.Path) })

	f.done(1, FileResult{Path: "b"})
	assert.Empty(t, emitted)

	f.done(0, FileResult{Path: "a"})
	assert.Equal(t, []string{"a", "b"}, emitted)

	f.done(2, FileResult{Path: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, emitted)
}

func TestRun_ReplacementsCountedPerCorruptedSequence(t *testing.T) {
	fs := afero.NewMemMapFs()
	deep := corrupted(t, wave)
	shallow, err := table.Corrupt(wave, 1)
	require.NoError(t, err)
	write(t, fs, filepath.Join("src", "a.jsx"), deep+" "+deep+" "+shallow)

	deepBefore := testutil.ToFloat64(metrics.Replacements.WithLabelValues(deep))
	shallowBefore := testutil.ToFloat64(metrics.Replacements.WithLabelValues(shallow))

	_, err = NewRunner(fs, testConfig(), table.Default()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Replacements.WithLabelValues(deep))-deepBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Replacements.WithLabelValues(shallow))-shallowBefore)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Replacements.WithLabelValues(wave)))
}

func TestRun_CancelledContextSkipsFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, filepath.Join("src", "a.jsx"), corrupted(t, wave))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewRunner(fs, testConfig(), table.Default()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Files)
}

func TestWriteReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	write(t, fs, filepath.Join("src", "a.jsx"), corrupted(t, wave))

	report, err := NewRunner(fs, testConfig(), table.Default(), WithClock(func() time.Time { return fixed })).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, WriteReport(fs, "report.json", report))

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(read(t, fs, "report.json")), &decoded))
	assert.Equal(t, fixed, decoded.StartedAt)
	assert.Equal(t, 1, decoded.Summary.Fixed)
	assert.Equal(t, StatusFixed, decoded.Files[0].Status)
}
