package bank

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const customersCSV = `identifier,name,birth_date,score,credit_limit
123.456.789-01,Ana Souza,1990-03-14,600,5000
987.654.321-09,Bruno Lima,1985-12-01,300,1000
`

const bandsCSV = `min_score,max_score,max_limit
0,299,1000
300,499,3000
500,699,5000
700,849,8000
850,1000,15000
`

func TestLoadCustomersCSV(t *testing.T) {
	t.Parallel()

	records, err := LoadCustomersCSV(strings.NewReader(customersCSV))
	if err != nil {
		t.Fatalf("LoadCustomersCSV() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Identifier != "12345678901" {
		t.Fatalf("identifier must be normalized, got %q", first.Identifier)
	}
	if first.Name != "Ana Souza" || first.Score != 600 || first.Limit != 5000 {
		t.Fatalf("unexpected record %+v", first)
	}
	want := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !first.BirthDate.Equal(want) {
		t.Fatalf("birth date = %v, want %v", first.BirthDate, want)
	}
}

func TestLoadCustomersCSVRejectsBadRows(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		csv  string
	}{
		{
			"bad date",
			"identifier,name,birth_date,score,credit_limit\n123.456.789-01,Ana,14/03/1990,600,5000\n",
		},
		{
			"score out of range",
			"identifier,name,birth_date,score,credit_limit\n123.456.789-01,Ana,1990-03-14,1200,5000\n",
		},
		{
			"non-numeric score",
			"identifier,name,birth_date,score,credit_limit\n123.456.789-01,Ana,1990-03-14,high,5000\n",
		},
		{
			"negative limit",
			"identifier,name,birth_date,score,credit_limit\n123.456.789-01,Ana,1990-03-14,600,-5\n",
		},
		{
			"short identifier",
			"identifier,name,birth_date,score,credit_limit\n12345,Ana,1990-03-14,600,5000\n",
		},
		{
			"empty file",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := LoadCustomersCSV(strings.NewReader(tc.csv)); !errors.Is(err, ErrBadSeedRow) {
				t.Fatalf("expected ErrBadSeedRow, got %v", err)
			}
		})
	}
}

func TestLoadCustomersCSVRejectsRaggedRows(t *testing.T) {
	t.Parallel()

	in := "identifier,name,birth_date,score,credit_limit\n123.456.789-01,Ana,1990-03-14,600\n"
	if _, err := LoadCustomersCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for row with missing field")
	}
}

func TestLoadScoreBandsCSV(t *testing.T) {
	t.Parallel()

	bands, err := LoadScoreBandsCSV(strings.NewReader(bandsCSV))
	if err != nil {
		t.Fatalf("LoadScoreBandsCSV() error = %v", err)
	}

	table, err := NewScoreLimitTable(bands)
	if err != nil {
		t.Fatalf("seeded bands must form a valid table: %v", err)
	}
	limit, err := table.MaxLimitFor(600)
	if err != nil {
		t.Fatalf("MaxLimitFor() error = %v", err)
	}
	if limit != 5000 {
		t.Fatalf("limit for 600 = %.2f, want 5000", limit)
	}
}

func TestLoadScoreBandsCSVRejectsInvertedBand(t *testing.T) {
	t.Parallel()

	in := "min_score,max_score,max_limit\n500,300,1000\n"
	if _, err := LoadScoreBandsCSV(strings.NewReader(in)); !errors.Is(err, ErrBadSeedRow) {
		t.Fatalf("expected ErrBadSeedRow, got %v", err)
	}
}
