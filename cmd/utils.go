package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTimestamp(value string) (globaldb.Timestamp, error) {
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", value, err)
	}
	return globaldb.Timestamp(ts), nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
