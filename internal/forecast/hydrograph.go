package forecast

import (
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"time"
)

// Variable names of the ADHydro RAPID output.
const (
	VarDepth         = "channelSurfacewaterDepth"
	VarReferenceDate = "referenceDate"
	VarCurrentTime   = "currentTime"
)

// Point is one hydrograph sample, serialized as [milliseconds, value].
type Point struct {
	Time  float64
	Value float64
}

// MarshalJSON implements json.Marshaler.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Time, p.Value}) //nolint:wrapcheck
}

// JulianToTime converts a Julian day number to a UTC time truncated to the hour.
// The calendar date uses the Fliegel and Van Flandern algorithm, the day fraction counts from midnight.
func JulianToTime(jd float64) time.Time {
	day, frac := math.Modf(jd)

	switch {
	case frac > -0.5 && frac < 0.5:
		frac += 0.5
	case frac >= 0.5:
		day++
		frac -= 0.5
	default:
		day--
		frac += 1.5
	}

	l := day + 68569
	n := math.Trunc(4 * l / 146097)
	l -= math.Trunc((146097*n + 3) / 4)
	i := math.Trunc(4000 * (l + 1) / 1461001)
	l -= math.Trunc(1461*i/4) - 31
	j := math.Trunc(80 * l / 2447)
	d := l - math.Trunc(2447*j/80)
	l = math.Trunc(j / 11)
	m := j + 2 - 12*l
	y := 100*(n-49) + i + l

	return time.Date(int(y), time.Month(int(m)), int(d), int(frac*24), 0, 0, 0, time.UTC) //nolint:mnd
}

// ReadHydrograph extracts the depth series of the reach at index from ds.
// Sample times are (currentTime + referenceDate) in milliseconds, in file order.
func ReadHydrograph(ds Dataset, index int) ([]Point, error) {
	depthValues, err := ds.Values(VarDepth)
	if err != nil {
		return nil, ErrInvalidFile
	}

	depth, ok := column(depthValues, index)
	if !ok {
		return nil, ErrInvalidFile
	}

	refValues, err := ds.Values(VarReferenceDate)
	if err != nil {
		return nil, ErrInvalidFile
	}

	refs := flatten(refValues)
	if len(refs) == 0 {
		return nil, ErrInvalidFile
	}

	reference := float64(JulianToTime(refs[0]).Unix())

	if !slices.Contains(ds.Variables(), VarCurrentTime) {
		return nil, ErrInvalidFile
	}

	offsetValues, err := ds.Values(VarCurrentTime)
	if err != nil {
		return nil, ErrInvalidFile
	}

	offsets := flatten(offsetValues)

	points := make([]Point, 0, min(len(offsets), len(depth)))
	for i := 0; i < len(offsets) && i < len(depth); i++ {
		points = append(points, Point{Time: (offsets[i] + reference) * 1000, Value: depth[i]}) //nolint:mnd
	}

	return points, nil
}

// column returns values[t][index] for every t of a two dimensional numeric array.
func column(values any, index int) ([]float64, bool) {
	rows := reflect.ValueOf(values)
	if rows.Kind() != reflect.Slice && rows.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]float64, 0, rows.Len())

	for t := 0; t < rows.Len(); t++ {
		row := reflect.Indirect(rows.Index(t))
		for row.Kind() == reflect.Interface {
			row = row.Elem()
		}

		if row.Kind() != reflect.Slice && row.Kind() != reflect.Array {
			return nil, false
		}

		if index >= row.Len() {
			return nil, false
		}

		v, ok := number(row.Index(index))
		if !ok {
			return nil, false
		}

		out = append(out, v)
	}

	return out, true
}

// flatten returns the numbers of a scalar or a one dimensional array.
func flatten(values any) []float64 {
	v := reflect.ValueOf(values)

	if n, ok := number(v); ok {
		return []float64{n}
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}

	out := make([]float64, 0, v.Len())

	for i := 0; i < v.Len(); i++ {
		n, ok := number(v.Index(i))
		if !ok {
			return nil
		}

		out = append(out, n)
	}

	return out
}

func number(v reflect.Value) (float64, bool) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, false
		}

		v = v.Elem()
	}

	switch v.Kind() { //nolint:exhaustive
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}
