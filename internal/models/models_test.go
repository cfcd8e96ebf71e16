package models

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "1000,5", want: "1000.500"},
		{raw: " 12.34567 ", want: "12.346"},
		{raw: "", want: "0.000"},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.raw)
		if err != nil {
			t.Fatalf("%q: parse failed: %v", tc.raw, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: want %s got %s", tc.raw, tc.want, got)
		}
	}
	if _, err := ParseQuantity("12 l"); err == nil {
		t.Fatalf("non numeric input should fail")
	}
}

func TestQuantityJSONAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2,5","b":3.14159}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"a":"2.500","b":"3.142"}` {
		t.Fatalf("unexpected json: %s", out)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "root@/agro", "silent"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel(" INFO ") != logger.Info || parseLogLevel("") != logger.Warn {
		t.Fatalf("unexpected gorm log level mapping")
	}
}

func TestMigrateCreatesQuantityColumns(t *testing.T) {
	db, err := Open("sqlite", fmt.Sprintf("file:models_%d?mode=memory&cache=shared", time.Now().UnixNano()), "silent")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := Migrate(nil); err == nil {
		t.Fatalf("nil db should fail")
	}

	unit := Unit{Name: "litre"}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("create unit failed: %v", err)
	}
	if !db.Migrator().HasTable(&PayerAllocation{}) || !db.Migrator().HasColumn(&StockTransaction{}, "Quantity") {
		t.Fatalf("allocation and stock tables should be migrated")
	}
}
