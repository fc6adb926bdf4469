package config

import (
	"errors"
	"path/filepath"
	"testing"

	"booksearch/internal/api/ecs"

	"go.uber.org/zap"
)

const sampleWatchlist = `
entries:
  - name: go-books
    enabled: true
    schedule: "0 0 */6 * * *"
    operation: item_search
    keywords: go programming
  - name: gopl-details
    enabled: true
    schedule: "0 30 2 * * *"
    operation: item_lookup
    id_type: isbn
    item_id: "9780134190440"
  - name: gopl-similar
    enabled: false
    schedule: "0 0 3 * * 1"
    operation: similarity_lookup
    id_type: ASIN
    item_id: "0134190440"
`

func TestLoadWatchlistConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "watchlist.yaml", sampleWatchlist)

	wl, err := LoadWatchlistConfig(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadWatchlistConfig() error = %v", err)
	}
	if len(wl.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(wl.Entries))
	}

	first := wl.Entries[0]
	if first.Name != "go-books" || !first.Enabled || first.Schedule != "0 0 */6 * * *" {
		t.Errorf("Entries[0] = %+v", first)
	}
	if wl.Entries[1].ItemID != "9780134190440" || wl.Entries[1].IDType != "isbn" {
		t.Errorf("Entries[1] = %+v", wl.Entries[1])
	}
	if wl.Entries[2].Enabled {
		t.Error("Entries[2].Enabled = true")
	}
}

func TestLoadWatchlistConfigFromFile_Missing(t *testing.T) {
	wl, err := LoadWatchlistConfigFromFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(wl.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(wl.Entries))
	}
}

func TestLoadWatchlistConfigFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", sampleWatchlist)

	wl, err := LoadWatchlistConfigFromFile(path, zap.NewNop())
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(wl.Entries) != 3 {
		t.Errorf("len(Entries) = %d, want 3", len(wl.Entries))
	}
}

func TestWatchEntry_BuildOperation(t *testing.T) {
	tests := []struct {
		name      string
		entry     WatchEntry
		want      ecs.Operation
		wantErrIs error
		wantErr   bool
	}{
		{
			name:  "search with defaults",
			entry: WatchEntry{Operation: "item_search", Keywords: "go"},
			want:  ecs.NewItemSearch("go"),
		},
		{
			name:  "search with overrides",
			entry: WatchEntry{Operation: "ITEM_SEARCH", Keywords: "go", SearchIndex: "All", ResponseGroup: "Small"},
			want:  ecs.ItemSearch{Keywords: "go", SearchIndex: "All", ResponseGroup: "Small"},
		},
		{
			name:  "lookup by isbn",
			entry: WatchEntry{Operation: "item_lookup", IDType: "isbn", ItemID: "9780134190440"},
			want:  ecs.NewItemLookupByISBN("9780134190440"),
		},
		{
			name:  "lookup by asin",
			entry: WatchEntry{Operation: "item_lookup", IDType: "ASIN", ItemID: "0134190440"},
			want:  ecs.NewItemLookupByASIN("0134190440"),
		},
		{
			name:  "similarity",
			entry: WatchEntry{Operation: "similarity_lookup", IDType: "asin", ItemID: "0134190440"},
			want:  ecs.NewSimilarityLookupByASIN("0134190440"),
		},
		{
			name:      "search without keywords",
			entry:     WatchEntry{Operation: "item_search"},
			wantErrIs: ecs.ErrValidation,
			wantErr:   true,
		},
		{
			name:    "lookup with bad id type",
			entry:   WatchEntry{Operation: "item_lookup", IDType: "upc", ItemID: "1"},
			wantErr: true,
		},
		{
			name:    "unknown operation",
			entry:   WatchEntry{Operation: "browse_node_lookup"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.BuildOperation()
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildOperation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Errorf("error = %v, want %v", err, tt.wantErrIs)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("BuildOperation() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
