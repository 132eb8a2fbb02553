package core

import "testing"

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-14" {
		t.Fatalf("expected 2025-03-14, got %s", d)
	}

	for _, bad := range []string{"", "2025-3-14", "14/03/2025", "2025-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestDateWithin(t *testing.T) {
	start := NewDate(2025, 1, 27)
	end := NewDate(2025, 2, 26)

	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2025, 1, 27), true}, // inclusive start
		{NewDate(2025, 2, 26), true}, // inclusive end
		{NewDate(2025, 2, 10), true},
		{NewDate(2025, 1, 26), false},
		{NewDate(2025, 2, 27), false},
	}
	for _, tc := range cases {
		if got := tc.d.Within(start, end); got != tc.want {
			t.Fatalf("%s within [%s,%s] = %v, expected %v", tc.d, start, end, got, tc.want)
		}
	}
}

func TestMonthKey(t *testing.T) {
	k, err := ParseMonthKey("2025-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.First().String() != "2025-02-01" {
		t.Fatalf("expected 2025-02-01, got %s", k.First())
	}
	if k.Last().String() != "2025-02-28" {
		t.Fatalf("expected 2025-02-28, got %s", k.Last())
	}

	leap := MonthKey("2024-02")
	if leap.Last().String() != "2024-02-29" {
		t.Fatalf("expected 2024-02-29, got %s", leap.Last())
	}

	for _, bad := range []string{"", "2025", "2025-2", "2025-13", "02-2025"} {
		if _, err := ParseMonthKey(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}

	if MonthKeyOf(NewDate(2025, 7, 31)) != "2025-07" {
		t.Fatal("expected 2025-07")
	}
}
