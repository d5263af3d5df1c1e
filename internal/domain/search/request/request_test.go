package request

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/outing/internal/domain/search/filter"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  키즈카페  ", filter.Expression{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "키즈카페" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if !r.Filters().IsEmpty() {
		t.Error("expected empty filters")
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	r, err := New("공원", filter.Expression{}, MaxTopK+10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TopK() != MaxTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), MaxTopK)
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("   ", filter.Expression{}, 5); err == nil {
		t.Error("expected error for blank query")
	}
	_, err := New(strings.Repeat("가", MaxQueryLength+1), filter.Expression{}, 5)
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %v", err)
	}
}

func TestNew_KeepsFilters(t *testing.T) {
	expr, _ := filter.Equal("region_city", "부산광역시")
	r, err := New("바다", expr, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Filters().Value("region_city") != "부산광역시" {
		t.Error("filters lost")
	}
}
