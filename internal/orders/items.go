package orders

import "encoding/json"

// snapshotVersion is bumped when the line shape changes; ParseSnapshot keeps
// reading older blobs by ignoring fields it no longer knows.
const snapshotVersion = 1

// Line is one purchased item frozen at placement time. It is the only record
// of what was bought: it must stay readable after the product is repriced,
// renamed, or deleted.
type Line struct {
	ProductID      int64  `json:"product_id"`
	BusinessID     string `json:"business_id"`
	Name           string `json:"name"`
	Qty            int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
}

type snapshot struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

func MarshalSnapshot(lines []Line) []byte {
	b, err := json.Marshal(snapshot{Version: snapshotVersion, Lines: lines})
	if err != nil {
		// Line contains only marshalable fields.
		panic(err)
	}
	return b
}

// ParseSnapshot is deliberately forgiving: a missing, empty, or garbled blob
// yields no lines, which downgrades reconciliation to a status-only update
// instead of failing the transition.
func ParseSnapshot(b []byte) []Line {
	if len(b) == 0 {
		return nil
	}
	var s snapshot
	if err := json.Unmarshal(b, &s); err == nil && len(s.Lines) > 0 {
		return s.Lines
	}
	// pre-versioning blobs were a bare array
	var lines []Line
	if err := json.Unmarshal(b, &lines); err == nil {
		return lines
	}
	return nil
}
