package jobsource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	// Create a test file.
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "job.txt")
	testContent := "We are seeking a Senior Backend Engineer."

	err := os.WriteFile(testFile, []byte("\n"+testContent+"\n"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	posting, err := Load(context.Background(), testFile, Posting{Title: " Senior Backend Engineer ", Company: "TechCorp"})
	if err != nil {
		t.Fatalf("Failed to load from file: %v", err)
	}

	if posting.Description != testContent {
		t.Errorf("Expected description '%s', got '%s'", testContent, posting.Description)
	}

	if posting.Title != "Senior Backend Engineer" {
		t.Errorf("Expected title 'Senior Backend Engineer', got '%s'", posting.Title)
	}

	if posting.Company != "TechCorp" {
		t.Errorf("Expected company 'TechCorp', got '%s'", posting.Company)
	}

	if posting.Source != SourceManual {
		t.Errorf("Expected source '%s', got '%s'", SourceManual, posting.Source)
	}
}

func TestLoadFromFileNonexistent(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/file.txt", Posting{})
	if err == nil {
		t.Error("Expected error loading nonexistent file, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	emptyFile := filepath.Join(tmpDir, "empty.txt")

	err := os.WriteFile(emptyFile, []byte("  \n"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err = Load(context.Background(), emptyFile, Posting{})
	if err == nil {
		t.Error("Expected error loading empty file, got nil")
	}
}

func TestLoadFromURLAppliesOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><h1>Job Title Here</h1><p>Job description here.</p></body></html>")
	}))
	defer server.Close()

	posting, err := Load(context.Background(), server.URL, Posting{Company: "Acme", Location: "Remote"})
	if err != nil {
		t.Fatalf("Failed to load from URL: %v", err)
	}

	if posting.Title != "Job Title Here" {
		t.Errorf("Expected scraped title, got '%s'", posting.Title)
	}

	if posting.Company != "Acme" {
		t.Errorf("Expected company override 'Acme', got '%s'", posting.Company)
	}

	if posting.Location != "Remote" {
		t.Errorf("Expected location override 'Remote', got '%s'", posting.Location)
	}
}

func TestLoadFromURLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Load(context.Background(), server.URL, Posting{})
	if err == nil {
		t.Error("Expected error for 404, got nil")
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{input: "https://www.linkedin.com/jobs/view/1", expected: true},
		{input: "http://example.com", expected: true},
		{input: "job.txt", expected: false},
		{input: "/tmp/job.txt", expected: false},
		{input: "ftp://example.com/job", expected: false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.input); got != tt.expected {
			t.Errorf("IsURL(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestPostingValidate(t *testing.T) {
	tests := []struct {
		name    string
		posting Posting
		wantErr bool
	}{
		{name: "empty", posting: Posting{}, wantErr: true},
		{name: "company only", posting: Posting{Company: "Acme"}, wantErr: true},
		{name: "title only", posting: Posting{Title: "SRE"}},
		{name: "description only", posting: Posting{Description: "Keep it up."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.posting.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
