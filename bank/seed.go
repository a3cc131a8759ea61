package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Seed files are plain CSV with a header row:
//
//	customers.csv:   identifier,name,birth_date,score,credit_limit
//	score_bands.csv: min_score,max_score,max_limit
//
// birth_date is YYYY-MM-DD. Rows are validated before they are accepted.

var seedValidate = validator.New()

var ErrBadSeedRow = errors.New("seed row is invalid")

type customerRow struct {
	Identifier string  `validate:"required"`
	Name       string  `validate:"required"`
	BirthDate  string  `validate:"required,datetime=2006-01-02"`
	Score      int     `validate:"gte=0,lte=1000"`
	Limit      float64 `validate:"gte=0"`
}

type bandRow struct {
	MinScore int     `validate:"gte=0,lte=1000"`
	MaxScore int     `validate:"gte=0,lte=1000,gtefield=MinScore"`
	MaxLimit float64 `validate:"gte=0"`
}

// LoadCustomersCSV reads and validates customer seed rows.
func LoadCustomersCSV(r io.Reader) ([]CustomerRecord, error) {
	rows, err := readSeedRows(r, 5)
	if err != nil {
		return nil, err
	}

	records := make([]CustomerRecord, 0, len(rows))
	for i, row := range rows {
		score, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: score: %v", ErrBadSeedRow, i+2, err)
		}
		limit, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: credit_limit: %v", ErrBadSeedRow, i+2, err)
		}

		parsed := customerRow{
			Identifier: strings.TrimSpace(row[0]),
			Name:       strings.TrimSpace(row[1]),
			BirthDate:  strings.TrimSpace(row[2]),
			Score:      score,
			Limit:      limit,
		}
		if err := seedValidate.Struct(parsed); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSeedRow, i+2, err)
		}

		id, err := NormalizeIdentifier(parsed.Identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSeedRow, i+2, err)
		}
		birth, err := time.Parse("2006-01-02", parsed.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSeedRow, i+2, err)
		}

		records = append(records, CustomerRecord{
			Identifier: id,
			Name:       parsed.Name,
			BirthDate:  birth,
			Score:      parsed.Score,
			Limit:      parsed.Limit,
		})
	}
	return records, nil
}

// LoadScoreBandsCSV reads and validates score band rows. The returned bands
// still go through NewScoreLimitTable for coverage validation.
func LoadScoreBandsCSV(r io.Reader) ([]ScoreBand, error) {
	rows, err := readSeedRows(r, 3)
	if err != nil {
		return nil, err
	}

	bands := make([]ScoreBand, 0, len(rows))
	for i, row := range rows {
		minScore, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: min_score: %v", ErrBadSeedRow, i+2, err)
		}
		maxScore, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: max_score: %v", ErrBadSeedRow, i+2, err)
		}
		maxLimit, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: max_limit: %v", ErrBadSeedRow, i+2, err)
		}

		parsed := bandRow{MinScore: minScore, MaxScore: maxScore, MaxLimit: maxLimit}
		if err := seedValidate.Struct(parsed); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSeedRow, i+2, err)
		}
		bands = append(bands, ScoreBand(parsed))
	}
	return bands, nil
}

// LoadCustomersFile is LoadCustomersCSV over a file path.
func LoadCustomersFile(path string) ([]CustomerRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCustomersCSV(f)
}

// LoadScoreBandsFile is LoadScoreBandsCSV over a file path.
func LoadScoreBandsFile(path string) ([]ScoreBand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScoreBandsCSV(f)
}

func readSeedRows(r io.Reader, wantFields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = wantFields
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed csv: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrBadSeedRow)
	}
	// first row is the header
	return all[1:], nil
}
