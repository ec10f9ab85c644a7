// Package inspect runs jq queries against rendered machine state.
package inspect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/zurustar/scmvm/pkg/savegame"
	"github.com/zurustar/scmvm/pkg/vm"
)

// Query runs the jq expression expr over the JSON document doc and returns
// every result in order.
func Query(doc []byte, expr string) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}

	var input any
	if err := json.Unmarshal(doc, &input); err != nil {
		return nil, fmt.Errorf("could not decode document: %w", err)
	}

	var out []any
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return out, fmt.Errorf("query %q: %w", expr, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Snapshot renders s and runs expr over it.
func Snapshot(s vm.Snapshot, expr string) ([]any, error) {
	doc, err := savegame.RenderJSON(s)
	if err != nil {
		return nil, err
	}
	return Query(doc, expr)
}

// Format writes one result per line: strings as is, everything else as
// compact JSON.
func Format(results []any) string {
	var b strings.Builder
	for _, v := range results {
		if s, ok := v.(string); ok {
			b.WriteString(s)
		} else {
			data, err := json.Marshal(v)
			if err != nil {
				fmt.Fprintf(&b, "%v", v)
			} else {
				b.Write(data)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
