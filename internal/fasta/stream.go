// internal/fasta/stream.go
package fasta

import "context"

// StreamCtx is the channel wrapper around ScanPath. The open error is
// reported immediately for non-stdin paths; scan errors are delivered on the
// returned error channel after the record channel closes.
func StreamCtx(ctx context.Context, path string) (<-chan Record, <-chan error, error) {
	if path != "-" {
		rc, err := Open(path)
		if err != nil {
			return nil, nil, err
		}
		_ = rc.Close()
	}

	out := make(chan Record, 8)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(out)
		errc <- ScanPath(ctx, path, func(r Record) error {
			select {
			case out <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out, errc, nil
}

// ReadAll loads every record from path.
func ReadAll(ctx context.Context, path string) ([]Record, error) {
	var recs []Record
	err := ScanPath(ctx, path, func(r Record) error {
		recs = append(recs, r)
		return nil
	})
	return recs, err
}
