package repository

import (
	"strings"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildSearchQuery_NoFilters(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Page: 1, Limit: 20})

	if strings.Contains(query, "ILIKE") {
		t.Fatal("unfiltered query must not contain a text match")
	}
	if strings.Contains(query, "acos") {
		t.Fatal("unfiltered query must not contain geo bounding")
	}
	if len(args) != 2 {
		t.Fatalf("expected only limit and offset args, got %d", len(args))
	}
	if args[0] != 20 || args[1] != 0 {
		t.Fatalf("expected limit=20 offset=0, got %v %v", args[0], args[1])
	}
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	_, args := buildSearchQuery(SearchParams{Page: 3, Limit: 20})

	offset := args[len(args)-1]
	if offset != 40 {
		t.Fatalf("expected offset 40 for page 3, got %v", offset)
	}
}

func TestBuildSearchQuery_TextAndType(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Query: "jet ski", Type: "watercraft", Page: 1, Limit: 20})

	if !strings.Contains(query, "v.title ILIKE $1") {
		t.Fatalf("expected title match on $1, got:\n%s", query)
	}
	if !strings.Contains(query, "v.type = $2") {
		t.Fatalf("expected type match on $2, got:\n%s", query)
	}
	if args[0] != "%jet ski%" {
		t.Fatalf("expected wrapped pattern, got %v", args[0])
	}
	if args[1] != "watercraft" {
		t.Fatalf("expected type arg, got %v", args[1])
	}
}

func TestBuildSearchQuery_PriceBounds(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{
		MinPrice: floatPtr(50),
		MaxPrice: floatPtr(300),
		Page:     1,
		Limit:    20,
	})

	if !strings.Contains(query, "v.price >= $1") || !strings.Contains(query, "v.price <= $2") {
		t.Fatalf("expected price bounds, got:\n%s", query)
	}
	if args[0] != 50.0 || args[1] != 300.0 {
		t.Fatalf("expected price args 50/300, got %v %v", args[0], args[1])
	}
}

func TestBuildSearchQuery_DateAvailability(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	query, args := buildSearchQuery(SearchParams{
		StartDate: &start,
		EndDate:   &end,
		Page:      1,
		Limit:     20,
	})

	if !strings.Contains(query, "NOT EXISTS") {
		t.Fatalf("expected booking exclusion subquery, got:\n%s", query)
	}
	if !strings.Contains(query, "b.status = 'confirmed'") {
		t.Fatal("only confirmed bookings should block availability")
	}
	if len(args) != 4 {
		t.Fatalf("expected start, end, limit, offset args, got %d", len(args))
	}
}

func TestBuildSearchQuery_GeoBounding(t *testing.T) {
	query, _ := buildSearchQuery(SearchParams{
		Latitude:  floatPtr(37.77),
		Longitude: floatPtr(-122.41),
		RadiusKm:  floatPtr(100),
		Page:      1,
		Limit:     20,
	})

	if !strings.Contains(query, "acos") {
		t.Fatalf("expected haversine clause, got:\n%s", query)
	}
	if !strings.Contains(query, "v.latitude IS NOT NULL") {
		t.Fatal("geo clause must exclude listings without coordinates")
	}
}

func TestBuildSearchQuery_GeoOmittedWhenIncomplete(t *testing.T) {
	// Latitude alone must not produce a geo clause.
	query, _ := buildSearchQuery(SearchParams{
		Latitude: floatPtr(37.77),
		Page:     1,
		Limit:    20,
	})

	if strings.Contains(query, "acos") {
		t.Fatal("incomplete geo params must not geo-bound the query")
	}
}

func TestBuildSearchQuery_StableOrdering(t *testing.T) {
	query, _ := buildSearchQuery(SearchParams{Page: 1, Limit: 20})

	if !strings.Contains(query, "ORDER BY v.rating DESC, v.id") {
		t.Fatalf("expected stable rating ordering, got:\n%s", query)
	}
}
