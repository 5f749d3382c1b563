// Package selection chooses the model spec for each sector.
//
// Holt-Winters sectors are resolved by GridSearch: every catalog candidate
// is fitted on the leading 80% of the series and scored by RMSE on the
// rest. The first candidate with the lowest score wins.
//
// A Selector puts an OverrideStore in front of the search. The stores are
//
//   - MapOverrides, an in-memory table usually loaded from YAML with
//     LoadOverrides;
//   - RedisOverrides, which keeps JSON specs under
//     gdpforecast:override:<family>:<kind>:<sector> and can also receive
//     live selections through OverrideWriter;
//   - Chain, which tries several stores in order.
//
// Example:
//
//	table, _ := selection.LoadOverrides("configs/overrides.yaml")
//	sel := &selection.Selector{
//	    Overrides: selection.Chain{table, redisStore},
//	    Writer:    redisStore,
//	}
//	choice, err := sel.Select(ctx, model.HoltWinters, series)
package selection
