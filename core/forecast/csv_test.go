package forecast

import (
	"strings"
	"testing"
	"time"
)

func TestReadPriceCSV(t *testing.T) {
	in := strings.NewReader("time,price\n00:00,12.5\n12:00,28.0\n18:00,42.1\n")
	curve, err := ReadPriceCSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	times := []time.Time{
		time.Date(2025, 3, 10, 0, 10, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 11, 45, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
	}
	got := curve.Apply(times)
	want := []float64{12.5, 28.0, 42.1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("price[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyWrapsAroundMidnight(t *testing.T) {
	// 23:50 is closer to 00:00 across the day boundary than to 18:00.
	in := strings.NewReader("time,price\n00:00,10\n18:00,40\n")
	curve, err := ReadPriceCSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := curve.Apply([]time.Time{time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)})
	if got[0] != 10 {
		t.Fatalf("price = %v, want 10", got[0])
	}
}

func TestReadPriceCSVUnsortedInput(t *testing.T) {
	in := strings.NewReader("time,price\n18:00,40\n00:00,10\n09:00,25\n")
	curve, err := ReadPriceCSV(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := curve.Apply([]time.Time{time.Date(2025, 3, 10, 8, 45, 0, 0, time.UTC)})
	if got[0] != 25 {
		t.Fatalf("price = %v, want 25", got[0])
	}
}

func TestReadPriceCSVErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"header only", "time,price\n"},
		{"empty", ""},
		{"bad clock", "time,price\n25:99,10\n"},
		{"bad price", "time,price\n00:00,cheap\n"},
		{"short row", "time,price\n00:00\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadPriceCSV(strings.NewReader(tc.in)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
