package stochastic

// zCell is one row of the Standard Normal (Z) table: the cumulative
// area under the standard normal curve up to the critical point z.
type zCell struct {
	Area float64
	Z    float64
}

// zTable holds the standard normal critical points used by NormalHazard's
// binary search. Unlike the reliability-engineering reference this was
// ported from, the rows here are kept strictly sorted by Z — the source
// table's first three rows were transcribed out of order, which silently
// breaks a binary search that assumes monotonic Z.
var zTable = []zCell{
	{Area: 0.0001, Z: -3.719},
	{Area: 0.001, Z: -3.09},
	{Area: 0.005, Z: -2.576},
	{Area: 0.01, Z: -2.326},
	{Area: 0.02, Z: -2.054},
	{Area: 0.025, Z: -1.96},
	{Area: 0.03, Z: -1.881},
	{Area: 0.04, Z: -1.751},
	{Area: 0.05, Z: -1.645},
	{Area: 0.06, Z: -1.555},
	{Area: 0.07, Z: -1.476},
	{Area: 0.08, Z: -1.405},
	{Area: 0.09, Z: -1.341},
	{Area: 0.1, Z: -1.282},
	{Area: 0.11, Z: -1.227},
	{Area: 0.12, Z: -1.175},
	{Area: 0.13, Z: -1.126},
	{Area: 0.14, Z: -1.08},
	{Area: 0.15, Z: -1.036},
	{Area: 0.16, Z: -0.994},
	{Area: 0.17, Z: -0.954},
	{Area: 0.18, Z: -0.915},
	{Area: 0.19, Z: -0.878},
	{Area: 0.2, Z: -0.842},
	{Area: 0.21, Z: -0.806},
	{Area: 0.22, Z: -0.772},
	{Area: 0.23, Z: -0.739},
	{Area: 0.24, Z: -0.706},
	{Area: 0.25, Z: -0.674},
	{Area: 0.26, Z: -0.643},
	{Area: 0.27, Z: -0.613},
	{Area: 0.28, Z: -0.583},
	{Area: 0.29, Z: -0.553},
	{Area: 0.3, Z: -0.524},
	{Area: 0.31, Z: -0.496},
	{Area: 0.32, Z: -0.468},
	{Area: 0.33, Z: -0.44},
	{Area: 0.34, Z: -0.412},
	{Area: 0.35, Z: -0.385},
	{Area: 0.36, Z: -0.358},
	{Area: 0.37, Z: -0.332},
	{Area: 0.38, Z: -0.305},
	{Area: 0.39, Z: -0.279},
	{Area: 0.4, Z: -0.253},
	{Area: 0.41, Z: -0.228},
	{Area: 0.42, Z: -0.202},
	{Area: 0.43, Z: -0.176},
	{Area: 0.44, Z: -0.151},
	{Area: 0.45, Z: -0.126},
	{Area: 0.46, Z: -0.1},
	{Area: 0.47, Z: -0.075},
	{Area: 0.48, Z: -0.05},
	{Area: 0.49, Z: -0.025},
	{Area: 0.5, Z: 0.0},
	{Area: 0.51, Z: 0.025},
	{Area: 0.52, Z: 0.05},
	{Area: 0.53, Z: 0.075},
	{Area: 0.54, Z: 0.1},
	{Area: 0.55, Z: 0.126},
	{Area: 0.56, Z: 0.151},
	{Area: 0.57, Z: 0.176},
	{Area: 0.58, Z: 0.202},
	{Area: 0.59, Z: 0.228},
	{Area: 0.6, Z: 0.253},
	{Area: 0.61, Z: 0.279},
	{Area: 0.62, Z: 0.305},
	{Area: 0.63, Z: 0.332},
	{Area: 0.64, Z: 0.358},
	{Area: 0.65, Z: 0.385},
	{Area: 0.66, Z: 0.412},
	{Area: 0.67, Z: 0.44},
	{Area: 0.68, Z: 0.468},
	{Area: 0.69, Z: 0.496},
	{Area: 0.7, Z: 0.524},
	{Area: 0.71, Z: 0.553},
	{Area: 0.72, Z: 0.583},
	{Area: 0.73, Z: 0.613},
	{Area: 0.74, Z: 0.643},
	{Area: 0.75, Z: 0.674},
	{Area: 0.76, Z: 0.706},
	{Area: 0.77, Z: 0.739},
	{Area: 0.78, Z: 0.772},
	{Area: 0.79, Z: 0.806},
	{Area: 0.8, Z: 0.842},
	{Area: 0.81, Z: 0.878},
	{Area: 0.82, Z: 0.915},
	{Area: 0.83, Z: 0.954},
	{Area: 0.84, Z: 0.994},
	{Area: 0.85, Z: 1.036},
	{Area: 0.86, Z: 1.08},
	{Area: 0.87, Z: 1.126},
	{Area: 0.88, Z: 1.175},
	{Area: 0.89, Z: 1.227},
	{Area: 0.9, Z: 1.282},
	{Area: 0.91, Z: 1.341},
	{Area: 0.92, Z: 1.405},
	{Area: 0.93, Z: 1.476},
	{Area: 0.94, Z: 1.555},
	{Area: 0.95, Z: 1.645},
	{Area: 0.96, Z: 1.751},
	{Area: 0.97, Z: 1.881},
	{Area: 0.975, Z: 1.96},
	{Area: 0.98, Z: 2.054},
	{Area: 0.99, Z: 2.326},
	{Area: 0.999, Z: 3.09},
	{Area: 0.9995, Z: 3.29},
	{Area: 0.9999, Z: 3.719},
}

// zTableSearch returns the area of the greatest row whose Z is <= zIn,
// bracketed by the next row's Z > zIn. Returns false if zIn falls below
// the smallest tabulated Z.
func zTableSearch(zIn float64) (area float64, ok bool) {
	last := len(zTable) - 1
	if zIn >= zTable[last].Z {
		return zTable[last].Area, true
	}
	l, u := 0, len(zTable)-2
	for l <= u {
		m := (l + u) / 2
		if zTable[m].Z <= zIn && zTable[m+1].Z > zIn {
			return zTable[m].Area, true
		} else if zTable[m].Z > zIn {
			u = m - 1
		} else {
			l = m + 1
		}
	}
	return 0, false
}
