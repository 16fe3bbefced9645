package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/starford/notesd/internal/models"
	"github.com/starford/notesd/internal/notes"
	"github.com/starford/notesd/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testImporter(t *testing.T) (*Importer, *notes.Service) {
	t.Helper()
	svc := testutil.TestService(t, 0)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	im, err := New(filepath.Join(t.TempDir(), "inbox"), svc, Options{Settle: 20 * time.Millisecond, Logger: logger})
	require.NoError(t, err)
	return im, svc
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile_Checklist(t *testing.T) {
	im, svc := testImporter(t)
	ctx := context.Background()
	path := write(t, im.Dir(), "trip.md", "---\ntitle: Trip\npinned: true\ncolor: green\n---\n- [ ] passport\n- [x] tickets\n")

	note, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Trip", note.Title)
	assert.Equal(t, models.TypeChecklist, note.Type)
	assert.True(t, note.Pinned)

	items, err := svc.GetChecklist(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "passport", items[0].Text)
	assert.True(t, items[1].Checked)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "imported file should be removed")
}

func TestScan_ImportsExistingAndSkipsOthers(t *testing.T) {
	im, svc := testImporter(t)
	ctx := context.Background()
	write(t, im.Dir(), "a.md", "# Alpha\nfirst")
	write(t, im.Dir(), "b.txt", "plain note")
	write(t, im.Dir(), "image.png", "not a note")
	write(t, im.Dir(), ".hidden.md", "skip")

	assert.Equal(t, 2, im.Scan(ctx))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, keep := range []string{"image.png", ".hidden.md"} {
		_, err := os.Stat(filepath.Join(im.Dir(), keep))
		assert.NoError(t, err, "%s should be untouched", keep)
	}
}

func TestScan_FailedFileStaysAndIsNotRetried(t *testing.T) {
	im, svc := testImporter(t)
	ctx := context.Background()
	path := write(t, im.Dir(), "bad.md", "---\ntype: drawing\n---\nx\n")

	assert.Zero(t, im.Scan(ctx))
	_, err := os.Stat(path)
	require.NoError(t, err, "failed file should stay in place")
	assert.Contains(t, im.failed, path)

	// Unchanged: skipped without another attempt.
	assert.Zero(t, im.Scan(ctx))

	// Fixed by the user: imported on the next scan.
	require.NoError(t, os.WriteFile(path, []byte("---\ntype: text\n---\nx\n"), 0o644))
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Second)))
	assert.Equal(t, 1, im.Scan(ctx))
	assert.NotContains(t, im.failed, path)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScan_UnremovableFileIsNotImportedTwice(t *testing.T) {
	im, svc := testImporter(t)
	ctx := context.Background()
	im.remove = func(string) error { return os.ErrPermission }
	path := write(t, im.Dir(), "locked.md", "# Locked\nbody")

	assert.Equal(t, 1, im.Scan(ctx))
	assert.Contains(t, im.failed, path)

	// The leftover is skipped while unchanged.
	assert.Zero(t, im.Scan(ctx))
	assert.Zero(t, im.Scan(ctx))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportFile_ReportsUnremovedFile(t *testing.T) {
	im, _ := testImporter(t)
	im.remove = func(string) error { return os.ErrPermission }
	path := write(t, im.Dir(), "keep.md", "body")

	note, err := im.ImportFile(context.Background(), path)
	require.ErrorIs(t, err, ErrNotRemoved)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.NotEmpty(t, note.ID)
}

func TestRun_ImportsNewFiles(t *testing.T) {
	im, svc := testImporter(t)
	write(t, im.Dir(), "early.md", "present before start")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- im.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	count := func() int {
		n, _ := svc.Count(context.Background())
		return n
	}
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return count() == 1 }, "existing file not imported")

	write(t, im.Dir(), "late.md", "# Late\n| a | b |\n")
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return count() == 2 }, "new file not imported")

	page, err := svc.Search(context.Background(), models.SearchQuery{Text: "late"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.TypeTable, page.Items[0].Type)
}

func TestEligible(t *testing.T) {
	for name, want := range map[string]bool{
		"note.md":      true,
		"NOTE.TXT":     true,
		"x.markdown":   true,
		".swap.md":     false,
		"note.md~":     false,
		"picture.jpeg": false,
		"no-extension": false,
	} {
		assert.Equal(t, want, eligible(name), name)
	}
}
