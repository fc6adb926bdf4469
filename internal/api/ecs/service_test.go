package ecs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeFetcher struct {
	body  []byte
	err   error
	calls []string
}

func (f *fakeFetcher) GetRawData(_ context.Context, rawURL string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	return f.body, f.err
}

func newTestService(f *fakeFetcher, creds Credentials) *Service {
	return NewService(NewSigner(creds, fixedClock), f, zap.NewNop())
}

func TestService_Search(t *testing.T) {
	f := &fakeFetcher{body: []byte(fullItemSearchXML)}
	svc := newTestService(f, testCredentials())

	resp, err := svc.SearchBooks(context.Background(), "go programming")
	if err != nil {
		t.Fatalf("SearchBooks() error = %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("fetch calls = %d, want 1", len(f.calls))
	}
	if f.calls[0] != resp.Request.URL {
		t.Errorf("fetched %s, want signed URL %s", f.calls[0], resp.Request.URL)
	}
	if resp.Operation != OperationItemSearch {
		t.Errorf("Operation = %s", resp.Operation)
	}
	if !resp.Result.IsValid || len(resp.Result.Items) != 2 {
		t.Errorf("Result = %+v", resp.Result)
	}
	if string(resp.Raw) != fullItemSearchXML {
		t.Error("Raw does not hold the response body")
	}
}

func TestService_ConvenienceOperations(t *testing.T) {
	tests := []struct {
		name      string
		call      func(*Service) (*Response, error)
		operation string
		contains  []string
	}{
		{
			name:      "lookup by ASIN",
			call:      func(s *Service) (*Response, error) { return s.LookupByASIN(context.Background(), "0134190440") },
			operation: OperationItemLookup,
			contains:  []string{"IdType=ASIN", "ItemId=0134190440"},
		},
		{
			name:      "lookup by ISBN",
			call:      func(s *Service) (*Response, error) { return s.LookupByISBN(context.Background(), "9780134190440") },
			operation: OperationItemLookup,
			contains:  []string{"IdType=ISBN", "SearchIndex=Books"},
		},
		{
			name:      "similar by ASIN",
			call:      func(s *Service) (*Response, error) { return s.SimilarByASIN(context.Background(), "0134190440") },
			operation: OperationSimilarityLookup,
			contains:  []string{"IdType=ASIN", "Operation=SimilarityLookup"},
		},
		{
			name:      "similar by ISBN",
			call:      func(s *Service) (*Response, error) { return s.SimilarByISBN(context.Background(), "9780134190440") },
			operation: OperationSimilarityLookup,
			contains:  []string{"IdType=ISBN", "ItemId=9780134190440"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{body: []byte(`<R><Items><Request><IsValid>True</IsValid></Request></Items></R>`)}
			resp, err := tt.call(newTestService(f, testCredentials()))
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if resp.Operation != tt.operation {
				t.Errorf("Operation = %s, want %s", resp.Operation, tt.operation)
			}
			for _, s := range tt.contains {
				if !strings.Contains(resp.Request.CanonicalQuery, s) {
					t.Errorf("canonical query %s missing %s", resp.Request.CanonicalQuery, s)
				}
			}
		})
	}
}

func TestService_SignErrorSkipsFetch(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		op      Operation
		wantErr error
	}{
		{"missing credentials", Credentials{}, NewItemSearch("go"), ErrConfiguration},
		{"missing identifier", testCredentials(), NewItemLookupByASIN(""), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			_, err := newTestService(f, tt.creds).Search(context.Background(), tt.op)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.calls) != 0 {
				t.Errorf("fetch calls = %d, want 0", len(f.calls))
			}
		})
	}
}

func TestService_FetchError(t *testing.T) {
	transportErr := errors.New("connection refused")
	f := &fakeFetcher{err: transportErr}

	_, err := newTestService(f, testCredentials()).SearchBooks(context.Background(), "go")
	if !errors.Is(err, transportErr) {
		t.Errorf("SearchBooks() error = %v, want wrapped %v", err, transportErr)
	}
}

func TestService_RemoteErrorIsNotFailure(t *testing.T) {
	f := &fakeFetcher{body: []byte(`<R><Items><Request><IsValid>False</IsValid><Errors><Error><Message>Bad keywords</Message></Error></Errors></Request></Items></R>`)}

	resp, err := NewService(NewSigner(testCredentials(), fixedClock), f, nil).SearchBooks(context.Background(), "go")
	if err != nil {
		t.Fatalf("SearchBooks() error = %v", err)
	}
	if resp.Result.IsValid {
		t.Error("IsValid = true")
	}
	if resp.Result.ErrorMessage == nil || *resp.Result.ErrorMessage != "Bad keywords" {
		t.Errorf("ErrorMessage = %v", resp.Result.ErrorMessage)
	}
}
