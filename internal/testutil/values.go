package testutil

import (
	"math"
	"time"

	"github.com/roach88/ecreader/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	mixBinary  = []byte("Hello, World!")
	mixInt     = int64(int32(-328961))
	mixLong    = int64(-1412873783869441)
	arrBinary  = []byte{0x48, 0x65, 0x06}
	arrDouble  = []float64{123.3434, 345.223, -532.123}
	arrDate    = []time.Time{date(2017, 1, 14), date(2018, 1, 13), date(2019, 1, 11)}
	arrUtcDate = []time.Time{date(2017, 1, 17), date(2018, 1, 11), date(2019, 1, 10)}
	arrInt     = []int64{3842, -4923, 8291}
	arrLong    = []int64{384242, -234923, 528291}
	arrString  = []string{"Bentley", "System"}
	arrBool    = []bool{true, false, true}
	arrP2d     = []model.Point2dValue{{X: 22.33, Y: -81.17}, {X: -42.74, Y: 16.29}, {X: 77.45, Y: -32.98}}
	arrP3d     = []model.Point3dValue{{X: 84.13, Y: 99.23, Z: -121.75}, {X: -90.34, Y: 45.75, Z: -452.34}, {X: -12.54, Y: -84.23, Z: -343.45}}
	arrGeom    = [][]byte{
		LineSegment([3]float64{0, 0, 0}, [3]float64{4, 2.1, 1.2}),
		LineSegment([3]float64{0, 0, 0}, [3]float64{1.1, 2.5, 4.2}),
		LineSegment([3]float64{0, 0, 0}, [3]float64{9.1, 3.6, 3.8}),
	}
)

func list[T any](items []T) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

// MixPrimitiveValues holds one value for every primitive property of e_mix
// (and of struct_p).
func MixPrimitiveValues() map[string]any {
	return map[string]any{
		"b":     true,
		"bi":    mixBinary,
		"d":     math.Pi,
		"dt":    date(2017, 1, 17),
		"dtUtc": date(2018, 2, 17),
		"i":     mixInt,
		"l":     mixLong,
		"s":     "Hello, World!",
		"p2d":   model.Point2dValue{X: 22.33, Y: -21.34},
		"p3d":   model.Point3dValue{X: 12.13, Y: -42.34, Z: -93.12},
		"geom":  LineSegment([3]float64{0, 0, 0}, [3]float64{1, 1, 1}),
	}
}

// MixArrayValues holds one value for every array property of e_mix (and of
// struct_pa).
func MixArrayValues() map[string]any {
	bins := []any{arrBinary, arrBinary, arrBinary}
	return map[string]any{
		"b_array":     list(arrBool),
		"bi_array":    bins,
		"d_array":     list(arrDouble),
		"dt_array":    list(arrDate),
		"dtUtc_array": list(arrUtcDate),
		"i_array":     list(arrInt),
		"l_array":     list(arrLong),
		"s_array":     list(arrString),
		"p2d_array":   list(arrP2d),
		"p3d_array":   list(arrP3d),
		"geom_array":  list(arrGeom),
	}
}

func structValue(values map[string]any) model.StructValue {
	sv := make(model.StructValue, len(values))
	for k, v := range values {
		sv[model.FoldName(k)] = v
	}
	return sv
}

// MixValues is a fully populated e_mix instance with its parent unset.
func MixValues() map[string]any {
	values := MixPrimitiveValues()
	for k, v := range MixArrayValues() {
		values[k] = v
	}
	values["p"] = structValue(MixPrimitiveValues())
	values["pa"] = structValue(MixArrayValues())

	var ofP []any
	for n := 0; n < 2; n++ {
		ofP = append(ofP, structValue(map[string]any{
			"b":     arrBool[n],
			"bi":    arrBinary,
			"d":     arrDouble[n],
			"dt":    arrDate[n],
			"dtUtc": arrUtcDate[n],
			"i":     arrInt[n],
			"l":     arrLong[n],
			"s":     arrString[n],
			"p2d":   arrP2d[n],
			"p3d":   arrP3d[n],
			"geom":  arrGeom[n],
		}))
	}
	values["array_of_p"] = ofP
	values["array_of_pa"] = []any{structValue(MixArrayValues()), structValue(MixArrayValues())}
	return values
}
