package timeseries

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	if s.Len() != 5 {
		t.Errorf("Expected length 5, got %d", s.Len())
	}
	if s.First() != Year(1) || s.Last() != Year(5) {
		t.Errorf("Expected periods 1..5, got %s..%s", s.First(), s.Last())
	}
}

func TestNewSeriesValidation(t *testing.T) {
	tests := []struct {
		name    string
		periods []Period
		values  []float64
		wantErr bool
	}{
		{"ok", []Period{Year(2015), Year(2016)}, []float64{1, 2}, false},
		{"length", []Period{Year(2015)}, []float64{1, 2}, true},
		{"unordered", []Period{Year(2016), Year(2015)}, []float64{1, 2}, true},
		{"duplicate", []Period{Year(2015), Year(2015)}, []float64{1, 2}, true},
		{"nan", []Period{Year(2015), Year(2016)}, []float64{1, math.NaN()}, true},
		{"frequency", []Period{YearQuarter(2015, 1)}, []float64{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries("Mining", Annual, tt.periods, tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSeries() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.values).Mean()
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected mean %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	expected := 4.571428571428571

	if result := s.Variance(); math.Abs(result-expected) > 1e-10 {
		t.Errorf("Expected variance %f, got %f", expected, result)
	}
	if result := s.Std(); math.Abs(result-math.Sqrt(expected)) > 1e-10 {
		t.Errorf("Expected std %f, got %f", math.Sqrt(expected), result)
	}
}

func TestMinMaxMedian(t *testing.T) {
	s := New([]float64{5, 2, 8, 1, 9, 3})

	if s.Min() != 1 {
		t.Errorf("Expected min 1, got %f", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("Expected max 9, got %f", s.Max())
	}
	if s.Median() != 4 {
		t.Errorf("Expected median 4, got %f", s.Median())
	}
}

func TestMinPositive(t *testing.T) {
	min, ok := New([]float64{0, -3, 7, 2, 0}).MinPositive()
	if !ok || min != 2 {
		t.Errorf("Expected min positive 2, got %f (ok=%v)", min, ok)
	}

	if _, ok := New([]float64{0, -1, 0}).MinPositive(); ok {
		t.Error("Expected no positive value")
	}
}

func TestDiff(t *testing.T) {
	s, _ := NewSeries("Construction", Annual,
		[]Period{Year(2015), Year(2016), Year(2017), Year(2018)},
		[]float64{1, 3, 6, 10})
	diff := s.Diff()

	expected := []float64{2, 3, 4}
	if diff.Len() != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), diff.Len())
	}
	for i, v := range diff.Values {
		if v != expected[i] {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if diff.First() != Year(2016) {
		t.Errorf("Expected differenced series to start at 2016, got %s", diff.First())
	}
	if diff.Sector != "Construction" {
		t.Errorf("Expected sector to be preserved, got %q", diff.Sector)
	}
	if s.Len() != 4 {
		t.Error("Diff must not mutate the receiver")
	}
}

func TestDiffN(t *testing.T) {
	s := New([]float64{1, 4, 9, 16, 25})
	diff2 := s.DiffN(2)

	expected := []float64{2, 2, 2}
	if diff2.Len() != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), diff2.Len())
	}
	for i, v := range diff2.Values {
		if v != expected[i] {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
}

func TestSeasonalDiff(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 2, 3, 4, 5})
	sdiff := s.SeasonalDiff(4)

	if sdiff.Len() != 4 {
		t.Fatalf("Expected length 4, got %d", sdiff.Len())
	}
	for i, v := range sdiff.Values {
		if v != 1 {
			t.Errorf("Expected 1 at index %d, got %f", i, v)
		}
	}
}

func TestSplit(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	train, test := s.Split(0.8)

	if train.Len() != 7 || test.Len() != 2 {
		t.Errorf("Expected 7/2 split, got %d/%d", train.Len(), test.Len())
	}
	if test.First() != Year(8) {
		t.Errorf("Expected holdout to start at period 8, got %s", test.First())
	}
}

func TestLog1pExpm1(t *testing.T) {
	s := New([]float64{0, 1, 99})
	logged := s.Log1p()
	back := Expm1(logged.Values)

	for i, v := range back {
		if math.Abs(v-s.Values[i]) > 1e-9 {
			t.Errorf("Expected %f at index %d, got %f", s.Values[i], i, v)
		}
	}
	if logged.Values[0] != 0 {
		t.Errorf("Expected log1p(0) = 0, got %f", logged.Values[0])
	}
}

func TestCopy(t *testing.T) {
	s := New([]float64{1, 2, 3})
	c := s.Copy()
	c.Values[0] = 100
	c.Periods[0] = Year(100)

	if s.Values[0] != 1 || s.Periods[0] != Year(1) {
		t.Error("Copy should be independent of the original")
	}
}
