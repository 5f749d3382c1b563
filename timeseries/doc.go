// Package timeseries provides the sector series type and the preparation
// step that turns raw GDP observations into model-ready series.
//
// # Periods
//
// A Period is a year or a year-quarter:
//
//	p, _ := timeseries.ParsePeriod("2019 Q3")  // 2019-Q3
//	next := p.Next()                          // 2019-Q4
//	labels := timeseries.Range(timeseries.Year(2024), timeseries.Year(2030))
//
// # Loading observations
//
// Long CSV files carry sector, sub_sector, period and value columns. Wide
// files, in CSV or .xlsx form, carry a Sector column, an optional
// Sub-Sector column, and one column per period:
//
//	obs, err := timeseries.LoadCSV("gdp.csv", nil)
//	obs, err := timeseries.LoadWorkbook("annual.xlsx", nil)
//
// # Preparation
//
// Prepare sums sub-sectors, pivots onto a fixed window with missing cells
// set to zero, and keeps only allow-listed sectors:
//
//	series, err := timeseries.Prepare(obs, timeseries.PrepareOptions{
//	    Frequency: timeseries.Annual,
//	    Window:    timeseries.Window{Start: timeseries.Year(2015), End: timeseries.Year(2023)},
//	    Sectors:   []string{"Manufacturing", "Construction"},
//	})
//
// # Transformations
//
// Every transformation returns a new series:
//
//	diff := series.Diff()            // First difference
//	sdiff := series.SeasonalDiff(4)  // Seasonal difference
//	logged := series.Log1p()         // log(1+x)
//	train, test := series.Split(0.8) // Train/holdout split
package timeseries
