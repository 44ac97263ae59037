package factory

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/warp/staffing-planner/staffing"
)

// ParseSnapshot decodes a working-set seed document (the same shape as a
// scenario's "data" object). Allocations of 0 are dropped so the map stays
// normalized.
func ParseSnapshot(data []byte) (staffing.WorkingSet, error) {
	var ws staffing.WorkingSet
	if err := json.Unmarshal(data, &ws); err != nil {
		return staffing.WorkingSet{}, fmt.Errorf("parse snapshot: %w", err)
	}
	for id, m := range ws.Allocations {
		for d, pct := range m {
			if pct == 0 {
				delete(m, d)
			}
		}
		if len(m) == 0 {
			delete(ws.Allocations, id)
		}
	}
	return ws, nil
}

// EncodeSnapshot marshals a working set.
func EncodeSnapshot(ws staffing.WorkingSet) ([]byte, error) {
	return json.Marshal(ws)
}
