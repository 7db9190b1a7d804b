// pkg/api/hits_v1.go
package api

// HitV1 is the stable JSON/JSONL schema for one alignment.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type HitV1 struct {
	QueryStart  int    `json:"query_start"`
	QueryEnd    int    `json:"query_end"`
	Strand      string `json:"strand"` // "+" | "-"
	TargetName  string `json:"target_name"`
	TargetLen   int    `json:"target_len"`
	TargetStart int    `json:"target_start"`
	TargetEnd   int    `json:"target_end"`
	MatchLen    int    `json:"match_len"`
	BlockLen    int    `json:"block_len"`
	MapQ        uint32 `json:"mapq"`
	Primary     bool   `json:"primary"`
	Score       int    `json:"score"`
	Cigar       string `json:"cigar"`
	NM          int    `json:"nm"`
	MD          string `json:"md,omitempty"`
	CS          string `json:"cs,omitempty"`
}

// ResultV1 is one mapped query with all of its hits. Hits is never null.
type ResultV1 struct {
	QueryName string  `json:"query_name"`
	QueryLen  int     `json:"query_len"`
	Hits      []HitV1 `json:"hits"`
}
