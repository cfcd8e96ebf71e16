package repository

import "testing"

func TestSearchCondition(t *testing.T) {
	got := searchCondition("sqlite", []string{"product_name", " ", "payer_name"})
	if got != "product_name LIKE @kw OR payer_name LIKE @kw" {
		t.Fatalf("unexpected sqlite condition: %s", got)
	}
	if got := searchCondition("postgres", []string{"order_no"}); got != "order_no ILIKE @kw" {
		t.Fatalf("postgres should use ILIKE, got %s", got)
	}
	if got := searchCondition("sqlite", nil); got != "" {
		t.Fatalf("no columns should give empty condition, got %s", got)
	}
}

func TestDialectDefaultsToSQLite(t *testing.T) {
	if got := dialect(nil); got != "sqlite" {
		t.Fatalf("nil db should be sqlite, got %s", got)
	}
}

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]uint{3, 0, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected ids: %v", got)
	}
}
