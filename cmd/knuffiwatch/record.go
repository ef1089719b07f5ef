package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shima-park/knuffimap"
)

// record is a child value decoded without a schema.
type record map[string]interface{}

func fieldComparator(field string, desc bool) knuffimap.Comparator[record] {
	c := func(a, b record) int {
		return compareValues(a[field], b[field])
	}
	if desc {
		return knuffimap.Reverse[record](c)
	}
	return c
}

// compareValues ranks numbers before anything else and compares the rest
// by their printed form.
func compareValues(a, b interface{}) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	switch {
	case aok && bok:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// toFloat rejects NaN so that numbers stay totally ordered. A NaN field
// is ranked with the non numeric values.
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(t, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return f, !math.IsNaN(f)
}
