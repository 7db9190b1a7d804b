package writers

import (
	"encoding/json"
	"io"

	"mappy/internal/jsonlutil"
	"mappy/pkg/api"
)

// WriteJSON writes a single indented JSON array of v1 results.
func WriteJSON(w io.Writer, list []Mapped) error {
	out := make([]api.ResultV1, 0, len(list))
	for _, m := range list {
		out = append(out, ToAPIResult(m))
	}
	return jsonlutil.EncodePretty(w, out)
}

// StartJSONLWriter streams each Mapped as one JSON line (v1).
func StartJSONLWriter(out io.Writer, bufSize int) (chan<- Mapped, <-chan error) {
	return jsonlutil.Start[Mapped](out, bufSize,
		func(enc *json.Encoder, m Mapped) error {
			return enc.Encode(ToAPIResult(m))
		},
		IsBrokenPipe,
	)
}
