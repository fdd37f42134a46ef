package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{input: "lump_sum", want: StrategyLumpSum},
		{input: "dca", want: StrategyDCA},
		{input: "DCA", wantErr: true},
		{input: "lumpsum", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewPricePoint(t *testing.T) {
	date := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	p, err := NewPricePoint(date, 130.5)
	if err != nil {
		t.Fatalf("NewPricePoint() error = %v", err)
	}
	if p.Close != 130.5 || !p.Date.Equal(date) {
		t.Errorf("NewPricePoint() = %+v", p)
	}

	for _, bad := range []float64{0, -1} {
		_, err := NewPricePoint(date, bad)
		var invalid *InvalidDataError
		if !errors.As(err, &invalid) {
			t.Errorf("NewPricePoint(%v) error = %v, want *InvalidDataError", bad, err)
		}
	}
}

func TestErrorTypesAreDistinct(t *testing.T) {
	var invalid *InvalidDataError
	var calc *CalculationError

	var err error = ErrInvalidData("bad input %d", 42)
	if !errors.As(err, &invalid) {
		t.Errorf("ErrInvalidData does not produce *InvalidDataError")
	}
	if errors.As(err, &calc) {
		t.Errorf("InvalidDataError must not match *CalculationError")
	}

	err = ErrCalculation("division by zero")
	if !errors.As(err, &calc) {
		t.Errorf("ErrCalculation does not produce *CalculationError")
	}
	if errors.As(err, &invalid) {
		t.Errorf("CalculationError must not match *InvalidDataError")
	}
}
