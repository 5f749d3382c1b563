package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8848digital/GDP-Forecast/timeseries"
)

func TestHoltWintersCandidatesAnnual(t *testing.T) {
	c := HoltWintersCandidates(timeseries.Annual)
	// 8 component pairs x 4 periods
	require.Len(t, c, 32)

	assert.Equal(t, NewHoltWinters(Additive, Additive, 3), c[0])
	assert.Equal(t, NewHoltWinters(Additive, Additive, 6), c[3])
	assert.Equal(t, NewHoltWinters(Additive, Multiplicative, 3), c[4])
	assert.Equal(t, NewHoltWinters(None, Multiplicative, 6), c[31])

	for _, s := range c {
		assert.False(t, s.ES.Trend == None && s.ES.Seasonal == None)
		assert.NoError(t, s.Validate(), s.String())
	}
}

func TestHoltWintersCandidatesQuarterly(t *testing.T) {
	c := HoltWintersCandidates(timeseries.Quarterly)
	require.Len(t, c, 8)
	for _, s := range c {
		assert.Equal(t, 4, s.ES.SeasonalPeriods)
	}
}

func TestArimaSearch(t *testing.T) {
	annual := ArimaSearch(timeseries.Annual)
	require.NoError(t, annual.Validate())
	assert.Equal(t, 1, annual.Arima.Period)
	assert.True(t, annual.Arima.Seasonal)
	assert.Equal(t, "ARIMA(stepwise,seasonal,m=1)", annual.String())

	quarterly := ArimaSearch(timeseries.Quarterly)
	assert.Equal(t, 4, quarterly.Arima.Period)
	assert.Equal(t, DefaultMaxModels, quarterly.Arima.MaxModels)
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"hw ok", NewHoltWinters(Multiplicative, Additive, 3), false},
		{"hw trend only", NewHoltWinters(Additive, None, 0), false},
		{"hw none none", NewHoltWinters(None, None, 3), true},
		{"hw bad period", NewHoltWinters(None, Additive, 1), true},
		{"hw bad component", NewHoltWinters("damped", Additive, 4), true},
		{"mixed variant", Spec{Family: HoltWinters, Arima: &Arima{Period: 1}}, true},
		{"arima bad period", NewArima(Arima{}), true},
		{"unknown family", Spec{Family: "prophet"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	f, err := ParseFamily("Holt_Winters")
	require.NoError(t, err)
	assert.Equal(t, HoltWinters, f)

	_, err = ParseFamily("prophet")
	assert.Error(t, err)

	c, err := ParseComponent("")
	require.NoError(t, err)
	assert.Equal(t, None, c)

	c, err = ParseComponent("Multiplicative")
	require.NoError(t, err)
	assert.Equal(t, Multiplicative, c)

	assert.Equal(t, "HW(mul,add,3)", NewHoltWinters(Multiplicative, Additive, 3).String())
}

func TestParseForecastType(t *testing.T) {
	tests := []struct {
		name   string
		kind   timeseries.Frequency
		family Family
	}{
		{"annual_arima", timeseries.Annual, AutoArima},
		{"quarterly_arima", timeseries.Quarterly, AutoArima},
		{"annual_holt_winters", timeseries.Annual, HoltWinters},
		{" Quarterly_Holt_Winters ", timeseries.Quarterly, HoltWinters},
	}
	for _, tt := range tests {
		kind, family, err := ParseForecastType(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.kind, kind)
		assert.Equal(t, tt.family, family)
	}

	for _, bad := range []string{"", "annual", "monthly_arima", "annual_prophet"} {
		_, _, err := ParseForecastType(bad)
		assert.Error(t, err, bad)
	}
}
