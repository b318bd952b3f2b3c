package features

import (
	"math"
	"regexp"
	"slices"
	"strconv"

	"github.com/poiesic/cohort/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// constantTolerance is the relative spread below which a column is treated as constant.
const constantTolerance = 1e-12

var numericToken = regexp.MustCompile(`([A-Za-z0-9_]+)\s*=\s*([-+]?\d*\.?\d+)`)

// ExtractNumeric scans the string values of keyValues for "name = number"
// tokens. The demographics entry and non-string values are skipped. Entries
// are visited in key order and a later occurrence of a name overwrites an
// earlier one. Tokens that fail to parse are ignored. Only ASCII digits
// count as numerals.
func ExtractNumeric(keyValues map[string]any) map[string]float64 {
	out := make(map[string]float64)
	keys := make([]string, 0, len(keyValues))
	for k := range keyValues {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if core.IsDemographicsKey(k) {
			continue
		}
		text, ok := keyValues[k].(string)
		if !ok {
			continue
		}
		for _, m := range numericToken.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			out[m[1]] = v
		}
	}
	return out
}

// NumericTable extracts numeric attributes for every persona. Columns are the
// union of discovered names in lexicographic order; missing cells are NaN.
// The returned matrix is nil when no column was found.
func NumericTable(personas []*core.Persona) ([]string, *mat.Dense) {
	rows := make([]map[string]float64, len(personas))
	seen := make(map[string]struct{})
	for i, p := range personas {
		rows[i] = ExtractNumeric(p.KeyValues)
		for name := range rows[i] {
			seen[name] = struct{}{}
		}
	}
	if len(seen) == 0 || len(personas) == 0 {
		return nil, nil
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	slices.Sort(columns)

	table := mat.NewDense(len(personas), len(columns), nil)
	for i, row := range rows {
		for j, name := range columns {
			v, ok := row[name]
			if !ok {
				v = math.NaN()
			}
			table.Set(i, j, v)
		}
	}
	return columns, table
}

// ImputeMedian replaces NaN cells with the median of the non-missing values
// in the same column. An even count averages the two middle values.
func ImputeMedian(table *mat.Dense) {
	r, c := table.Dims()
	present := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		present = present[:0]
		for i := 0; i < r; i++ {
			if v := table.At(i, j); !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if len(present) == r {
			continue
		}
		fill := median(present)
		for i := 0; i < r; i++ {
			if math.IsNaN(table.At(i, j)) {
				table.Set(i, j, fill)
			}
		}
	}
}

// Standardize rescales each column to zero mean and unit population variance.
// A column with zero variance (up to rounding) becomes all zeros.
func Standardize(table *mat.Dense) {
	r, c := table.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, table)
		mean, std := stat.PopMeanStdDev(col, nil)
		constant := !core.IsFinite(std) || std <= constantTolerance*math.Max(1, math.Abs(mean))
		for i := 0; i < r; i++ {
			if constant {
				table.Set(i, j, 0)
				continue
			}
			table.Set(i, j, (col[i]-mean)/std)
		}
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
