package google

import (
	"fmt"
	"strconv"
	"strings"

	"pemakaian/internal/core"
)

// parseValues converts a values matrix (as returned by the Sheets API) into
// a table. The first row is the header. Trailing empty cells are not sent
// by the API, so short rows are padded to the header width.
func parseValues(values [][]interface{}) (core.Table, error) {
	if len(values) == 0 {
		return core.Table{}, fmt.Errorf("sheet is empty")
	}
	headers := toStrings(values[0])
	records := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := toStrings(row)
		for len(rec) < len(headers) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
	// Sheets serial dates count from 1899-12-30, like the 1900 system.
	return core.Table{Headers: headers, Records: records}, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
