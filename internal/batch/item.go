package batch

import (
	"mappy/internal/align"
	"mappy/internal/errs"
)

// Item is one validated query on its way through the queue.
type Item struct {
	Seq     string
	Payload Record
	Pos     int // 0-based position in the batch
	Batch   *Tracker
}

// Result is the outcome for one Item. Hits is empty when the query did not
// map, which is not an error.
type Result struct {
	Pos     int
	Payload Record
	Hits    []align.Hit
}

// Validate checks a single batch element and returns it as an Item.
// Checks run in order and stop at the first failure: the element must be
// a Record, it must have a "seq" key, and that value must be a string.
func Validate(elem any, pos int) (Item, error) {
	rec, ok := elem.(Record)
	if !ok {
		return Item{}, errs.AtElement(errs.KindElementNotARecord, pos,
			"got %T, want a record (map[string]any)", elem)
	}
	v, ok := rec[SeqKey]
	if !ok {
		return Item{}, errs.AtElement(errs.KindMissingSeqKey, pos, "record has no %q key", SeqKey)
	}
	seq, ok := v.(string)
	if !ok {
		return Item{}, errs.AtElement(errs.KindSeqNotString, pos, "%q is %T, want string", SeqKey, v)
	}
	return Item{Seq: seq, Payload: rec, Pos: pos}, nil
}
