package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"booksearch/internal/model"
)

func str(s string) *string { return &s }

const searchEnvelope = `{"code":0,"message":"success","data":{"request_id":"r1","operation":"ItemSearch","canonical_query":"Keywords=go","timestamp":"2020-01-01T00:00:00.000Z","result":{"is_valid":true,"total_results":154,"total_pages":16,"items":[{"asin":"0134190440","isbn":"0134190440","title":"The Go Programming Language","author":"Alan A. A. Donovan"},{"asin":"1491941197","title":"Introducing Go"}]}}}`

func newFakeServer(t *testing.T, calls *int32, bodies *[]map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case EndpointHealth:
			w.Write([]byte(`{"code":0,"message":"success","data":{"status":"ok","version":"1.2.3"}}`))
			return
		case EndpointSearch, EndpointLookup, EndpointSimilar:
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":404,"message":"not found"}`))
			return
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":400,"message":"invalid request body","error":"` + err.Error() + `"}`))
			return
		}
		if bodies != nil {
			*bodies = append(*bodies, body)
		}
		if body["item_id"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":400,"message":"ItemLookup failed","error":"invalid parameter"}`))
			return
		}
		w.Write([]byte(searchEnvelope))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name   string
		result model.SearchResult
		want   string
	}{
		{
			name: "items",
			result: model.SearchResult{
				IsValid:      true,
				TotalResults: 2,
				TotalPages:   1,
				Items: []model.ItemRecord{
					{ISBN: str("0134190440"), Title: str("The Go Programming Language"), Author: str("Alan A. A. Donovan")},
					{Title: str("Introducing Go")},
				},
			},
			want: "Valid: True\nTotal Results: 2\nTotal Pages: 1\n" +
				"0134190440 Title: The Go Programming Language, by Alan A. A. Donovan\n" +
				" Title: Introducing Go, by \n",
		},
		{
			name:   "invalid request",
			result: model.SearchResult{ErrorMessage: str("Your request is missing required parameters.")},
			want:   "Valid: False\nTotal Results: 0\nTotal Pages: 0\nERR: Your request is missing required parameters.\n",
		},
		{
			name:   "valid without items",
			result: model.SearchResult{IsValid: true},
			want:   "Valid: True\nTotal Results: 0\nTotal Pages: 0\nERR: \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintResult(&buf, &tt.result)
			if buf.String() != tt.want {
				t.Errorf("PrintResult() =\n%q\nwant\n%q", buf.String(), tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	var calls int32
	var bodies []map[string]string
	server := newFakeServer(t, &calls, &bodies)

	var out bytes.Buffer
	sh, err := New(server.URL+"/", "1.0.0", &out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := sh.RunCommand(ctx, "search", []string{"go", "programming"}); err != nil {
		t.Fatalf("search error = %v", err)
	}
	if bodies[0]["keywords"] != "go programming" {
		t.Errorf("search body = %v", bodies[0])
	}
	if !strings.Contains(out.String(), "0134190440 Title: The Go Programming Language, by Alan A. A. Donovan") {
		t.Errorf("output = %s", out.String())
	}

	if err := sh.RunCommand(ctx, "l", []string{"isbn", "9780134190440"}); err != nil {
		t.Fatalf("lookup error = %v", err)
	}
	if bodies[1]["id_type"] != "ISBN" || bodies[1]["item_id"] != "9780134190440" {
		t.Errorf("lookup body = %v", bodies[1])
	}

	if err := sh.RunCommand(ctx, "SIMILAR", []string{"asin", "0134190440"}); err != nil {
		t.Fatalf("similar error = %v", err)
	}

	err = sh.RunCommand(ctx, "lookup", []string{"asin", "bad"})
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.StatusCode != http.StatusBadRequest || serverErr.Detail != "invalid parameter" {
		t.Errorf("lookup bad error = %v", err)
	}

	before := atomic.LoadInt32(&calls)
	if err := sh.RunCommand(ctx, "search", nil); err == nil {
		t.Error("search without keywords should fail")
	}
	if err := sh.RunCommand(ctx, "lookup", []string{"isbn"}); err == nil {
		t.Error("lookup with one argument should fail")
	}
	if atomic.LoadInt32(&calls) != before {
		t.Error("argument errors should not reach the server")
	}

	if err := sh.RunCommand(ctx, "nope", nil); err == nil {
		t.Error("unknown command should fail")
	}

	out.Reset()
	if err := sh.RunCommand(ctx, "version", nil); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out.String(), "booksearch-shell 1.0.0") || !strings.Contains(out.String(), "1.2.3") {
		t.Errorf("version output = %s", out.String())
	}
}

func TestRunInteractive(t *testing.T) {
	var calls int32
	server := newFakeServer(t, &calls, nil)

	var out bytes.Buffer
	sh, err := New(server.URL, "1.0.0", &out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	input := strings.NewReader("search go\n\nbogus\nlookup isbn\nquit\nsearch after exit\n")
	if err := sh.RunInteractive(context.Background(), input); err != nil {
		t.Fatalf("RunInteractive() error = %v", err)
	}

	output := out.String()
	for _, want := range []string{"Valid: True", "Total Results: 154", "Total Pages: 16", "ERR: 未知命令: bogus", "ERR: expected 2 arguments", "再见!"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestCommandRegistry(t *testing.T) {
	var out bytes.Buffer
	registry := NewCommandRegistry()
	if err := registry.Register(NewExitCommand(&out)); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(NewHelpCommand(registry, &out)); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(NewExitCommand(&out)); err == nil {
		t.Error("duplicate command should fail")
	}

	if cmd, ok := registry.Get("Q"); !ok || cmd.Name() != "exit" {
		t.Error("alias lookup failed")
	}

	list := registry.List()
	if len(list) != 2 || list[0].Name() != "exit" || list[1].Name() != "help" {
		t.Errorf("List() = %v", list)
	}

	if !strings.Contains(registry.HelpForCommand("quit"), "命令: exit") {
		t.Error("HelpForCommand(quit) should describe exit")
	}
	if !strings.Contains(registry.HelpForCommand("missing"), "未知命令") {
		t.Error("HelpForCommand(missing) should report unknown command")
	}
	if !errors.Is(NewExitCommand(&out).Execute(context.Background(), nil), ErrExit) {
		t.Error("exit should return ErrExit")
	}
}

func TestParseCommand(t *testing.T) {
	name, args := ParseCommand("  Search   go  programming ")
	if name != "search" || len(args) != 2 || args[0] != "go" || args[1] != "programming" {
		t.Errorf("ParseCommand() = %s %v", name, args)
	}
	if name, _ := ParseCommand("   "); name != "" {
		t.Errorf("ParseCommand(blank) = %q", name)
	}
}
