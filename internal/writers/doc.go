// Package writers turns mapped queries into serialized outputs.
//
// Each writer runs in its own goroutine fed over a channel: the caller
// sends Mapped values, closes the channel and reads one error from the
// returned error channel. PAF streams line by line; JSON and JSONL go
// through pkg/api (v1) for a stable wire format.
package writers
