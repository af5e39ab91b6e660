package crawler

import (
	"sync"
	"testing"
)

// --- URLSet Tests ---

func TestURLSet_Add_NewURL(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://example.com/page1") {
		t.Error("Add() should return true for new URL")
	}
	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}
}

func TestURLSet_Add_Duplicate(t *testing.T) {
	s := NewURLSet()

	s.Add("https://example.com/page1")
	if s.Add("https://example.com/page1") {
		t.Error("Add() should return false for duplicate URL")
	}
}

func TestURLSet_Add_Empty(t *testing.T) {
	s := NewURLSet()

	if s.Add("") || s.Add("   ") {
		t.Error("Add() should return false for an empty URL")
	}
	if s.Len() != 0 {
		t.Errorf("expected length 0, got %d", s.Len())
	}
}

// A URL that does not parse is still recorded once, keyed on its raw text.
func TestURLSet_Add_Unparseable(t *testing.T) {
	s := NewURLSet()
	bad := "https://portal.test/inmueble/casa-50%-descuento"

	if !s.Add(bad) {
		t.Fatal("Add() should accept an unparseable URL the first time")
	}
	if s.Add(bad) {
		t.Error("Add() should detect a repeated unparseable URL")
	}
	if !s.Add("https://portal.test/inmueble/2") {
		t.Error("Add() should accept a distinct valid URL")
	}
	if s.Len() != 2 {
		t.Errorf("expected length 2, got %d", s.Len())
	}
}

func TestURLSet_Add_TrailingSlashVariant(t *testing.T) {
	s := NewURLSet()
	s.Add("https://example.com/inmueble/1")

	if s.Add("https://example.com/inmueble/1/#fotos") {
		t.Error("Add() should collapse trailing-slash and fragment variants")
	}
	if !s.Add("https://example.com/inmueble/2") {
		t.Error("Add() should accept a different URL")
	}
}

func TestURLSet_Concurrent(t *testing.T) {
	s := NewURLSet()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add("https://example.com/same")
		}()
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}
}

// --- normalizeURL Tests ---

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/page", "https://example.com/page"},
		{"https://example.com/page/", "https://example.com/page"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com/page?a=1", "https://example.com/page?a=1"},
		{"://invalid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeURL(tt.input); got != tt.expected {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
