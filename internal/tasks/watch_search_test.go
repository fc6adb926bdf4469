package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"booksearch/internal/api/ecs"
	"booksearch/internal/config"
	"booksearch/internal/database"
	"booksearch/internal/model"
	"booksearch/internal/repository"
	"booksearch/internal/task"

	"go.uber.org/zap"
)

const watchSearchXML = `<ItemSearchResponse>
  <Items>
    <Request><IsValid>True</IsValid></Request>
    <TotalResults>2</TotalResults>
    <TotalPages>1</TotalPages>
    <Item>
      <ASIN>0134190440</ASIN>
      <ItemAttributes>
        <Author>Alan A. A. Donovan</Author>
        <Title>The Go Programming Language</Title>
      </ItemAttributes>
    </Item>
    <Item>
      <ItemAttributes><Title>No ASIN</Title></ItemAttributes>
    </Item>
  </Items>
</ItemSearchResponse>`

const invalidXML = `<ItemSearchResponse><Items><Request><IsValid>False</IsValid><Errors><Error><Message>Your request is missing required parameters.</Message></Error></Errors></Request></Items></ItemSearchResponse>`

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) GetRawData(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return []byte(f.body), f.err
}

func newTestService(f *fakeFetcher) *ecs.Service {
	creds := ecs.Credentials{AccessKey: "AK", SecretKey: "SK"}
	clock := func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }
	return ecs.NewService(ecs.NewSigner(creds, clock), f, zap.NewNop())
}

func setupCatalog(t *testing.T) *repository.ItemCatalog {
	t.Helper()
	dbs, err := database.New(database.Config{
		SQLite: database.SQLiteConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "catalog.db")},
	})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { dbs.Close() })

	db, dialect := dbs.Catalog()
	catalog, err := repository.NewItemCatalog(db, dialect, zap.NewNop())
	if err != nil {
		t.Fatalf("NewItemCatalog() error = %v", err)
	}
	if err := catalog.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return catalog
}

func goBooksEntry() config.WatchEntry {
	return config.WatchEntry{
		Name:      "go-books",
		Enabled:   true,
		Schedule:  "0 0 */6 * * *",
		Operation: config.WatchOperationItemSearch,
		Keywords:  "go programming",
	}
}

func TestNewWatchSearchTask(t *testing.T) {
	svc := newTestService(&fakeFetcher{})

	tk, err := NewWatchSearchTask(goBooksEntry(), svc, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatchSearchTask() error = %v", err)
	}
	if tk.Name() != "go-books" || tk.Schedule() != "0 0 */6 * * *" || !tk.Enabled() {
		t.Errorf("task = %s %s %v", tk.Name(), tk.Schedule(), tk.Enabled())
	}
	if tk.Source() != "watch:go-books" {
		t.Errorf("Source() = %s", tk.Source())
	}
	if tk.Timeout() != 0 {
		t.Errorf("Timeout() = %v", tk.Timeout())
	}

	bad := goBooksEntry()
	bad.Keywords = ""
	if _, err := NewWatchSearchTask(bad, svc, nil, nil, nil); !errors.Is(err, ecs.ErrValidation) {
		t.Errorf("empty keywords error = %v, want ErrValidation", err)
	}

	if _, err := NewWatchSearchTask(goBooksEntry(), nil, nil, nil, nil); err == nil {
		t.Error("nil service should fail")
	}
}

func TestWatchSearchTask_RunUpsertsCatalog(t *testing.T) {
	f := &fakeFetcher{body: watchSearchXML}
	catalog := setupCatalog(t)

	tk, err := NewWatchSearchTask(goBooksEntry(), newTestService(f), nil, catalog, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatchSearchTask() error = %v", err)
	}

	ctx := context.Background()
	if err := tk.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}

	n, err := catalog.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1 (item without ASIN skipped)", n)
	}

	item, err := catalog.GetItem(ctx, "0134190440")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if model.StringValue(item.Title) != "The Go Programming Language" {
		t.Errorf("Title = %q", model.StringValue(item.Title))
	}
}

func TestWatchSearchTask_InvalidResponseSkipsCatalog(t *testing.T) {
	catalog := setupCatalog(t)
	tk, err := NewWatchSearchTask(goBooksEntry(), newTestService(&fakeFetcher{body: invalidXML}), nil, catalog, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatchSearchTask() error = %v", err)
	}

	if err := tk.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v; an invalid response is not a task failure", err)
	}
	if n, _ := catalog.Count(context.Background()); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestWatchSearchTask_FetchError(t *testing.T) {
	fetchErr := errors.New("connection refused")
	tk, err := NewWatchSearchTask(goBooksEntry(), newTestService(&fakeFetcher{err: fetchErr}), nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatchSearchTask() error = %v", err)
	}

	err = tk.Run(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Errorf("Run() error = %v, want wrapped fetch error", err)
	}
}

func TestRegisterWatchlist(t *testing.T) {
	svc := newTestService(&fakeFetcher{})
	registry := task.NewTaskRegistry()

	badSchedule := goBooksEntry()
	badSchedule.Name = "bad-schedule"
	badSchedule.Schedule = "every day"

	duplicate := goBooksEntry()

	lookup := config.WatchEntry{
		Name:      "gatsby",
		Enabled:   false,
		Operation: config.WatchOperationItemLookup,
		IDType:    "ISBN",
		ItemID:    "9780743273565",
	}

	unknown := config.WatchEntry{Name: "unknown", Enabled: true, Schedule: "@daily", Operation: "browse"}

	watchlist := &config.WatchlistConfig{Entries: []config.WatchEntry{goBooksEntry(), badSchedule, duplicate, lookup, unknown}}

	n, err := RegisterWatchlist(registry, watchlist, svc, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("RegisterWatchlist() error = %v", err)
	}
	if n != 2 {
		t.Errorf("registered = %d, want 2", n)
	}
	if got := registry.Names(); len(got) != 2 || got[0] != "gatsby" || got[1] != "go-books" {
		t.Errorf("Names() = %v", got)
	}

	if n, err := RegisterWatchlist(registry, nil, svc, nil, nil, nil); n != 0 || err != nil {
		t.Errorf("nil watchlist = %d, %v", n, err)
	}
	if _, err := RegisterWatchlist(nil, watchlist, svc, nil, nil, nil); err == nil {
		t.Error("nil registry should fail")
	}
}

func TestArchiveCleanupTask(t *testing.T) {
	disabled := NewArchiveCleanupTask(nil, 24*time.Hour, "", zap.NewNop())
	if disabled.Enabled() {
		t.Error("task without repository should be disabled")
	}
	if disabled.Schedule() != "0 0 2 * * *" {
		t.Errorf("Schedule() = %s", disabled.Schedule())
	}
	if err := disabled.Run(context.Background()); err != nil {
		t.Errorf("disabled Run() error = %v", err)
	}

	noRetention := NewArchiveCleanupTask(&repository.SearchRepository{}, 0, "@daily", nil)
	if noRetention.Enabled() {
		t.Error("zero retention should disable the task")
	}

	tk := NewArchiveCleanupTask(&repository.SearchRepository{}, 48*time.Hour, "@daily", nil)
	tk.now = func() time.Time { return time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC) }
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC); !tk.Cutoff().Equal(want) {
		t.Errorf("Cutoff() = %v, want %v", tk.Cutoff(), want)
	}
	if tk.Name() != ArchiveCleanupTaskName || tk.Timeout() != 10*time.Minute {
		t.Errorf("task = %s %v", tk.Name(), tk.Timeout())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tk.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(canceled) error = %v", err)
	}
}
