package model

import (
	"fmt"
	"strconv"
)

// FormatValue normalizes a caller-supplied reading or actuation value to
// its canonical wire string. The pipeline carries only strings past this
// point. Numeric values render as decimal with no superfluous trailing
// zeros; booleans as "true"/"false".
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatValues normalizes a caller-supplied value to an ordered string
// slice. Slices map element-wise; scalars produce a single-element slice.
// Empty input slices produce nil, which callers treat as a no-op.
func FormatValues(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return formatSlice(v)
	case []bool:
		return formatSlice(v)
	case []int:
		return formatSlice(v)
	case []int64:
		return formatSlice(v)
	case []uint:
		return formatSlice(v)
	case []uint64:
		return formatSlice(v)
	case []float32:
		return formatSlice(v)
	case []float64:
		return formatSlice(v)
	case []interface{}:
		return formatSlice(v)
	default:
		return []string{FormatValue(v)}
	}
}

func formatSlice[T any](values []T) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out
}
