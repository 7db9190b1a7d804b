// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// Record is one parsed FASTA or FASTQ entry. Qual is nil for FASTA.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
	Qual []byte
}

// Scan parses FASTA or FASTQ from r and calls emit for each record. The
// format is chosen per record by its header byte ('>' or '@'), so
// concatenated inputs work. Cancellation via ctx is checked between lines.
// Returning a non-nil error from emit stops the scan with that error.
func Scan(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	var (
		cur    Record
		have   bool
		seq    = make([]byte, 0, 1<<16)
		lineNo int
	)

	flush := func() error {
		if !have {
			return nil
		}
		cur.Seq = append([]byte(nil), seq...)
		have = false
		seq = seq[:0]
		return emit(cur)
	}

	for sc.Scan() {
		lineNo++
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '>':
			if err := flush(); err != nil {
				return err
			}
			cur = Record{}
			cur.ID, cur.Desc = parseHeader(line[1:])
			have = true
		case '@':
			if err := flush(); err != nil {
				return err
			}
			id, desc := parseHeader(line[1:])
			rec, n, err := scanFASTQBody(sc, id, desc)
			lineNo += n
			if err != nil {
				return fmt.Errorf("fastq record %q near line %d: %w", id, lineNo, err)
			}
			if err := emit(rec); err != nil {
				return err
			}
		default:
			if !have {
				return fmt.Errorf("line %d: sequence data before first header", lineNo)
			}
			seq = append(seq, bytes.TrimSpace(line)...)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}

// scanFASTQBody reads sequence lines up to '+', then the same number of
// quality bytes. It returns the number of lines consumed.
func scanFASTQBody(sc *bufio.Scanner, id, desc string) (Record, int, error) {
	var (
		seq  []byte
		qual []byte
		n    int
	)
	for {
		if !sc.Scan() {
			return Record{}, n, io.ErrUnexpectedEOF
		}
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) > 0 && line[0] == '+' {
			break
		}
		seq = append(seq, line...)
	}
	for len(qual) < len(seq) {
		if !sc.Scan() {
			return Record{}, n, io.ErrUnexpectedEOF
		}
		n++
		qual = append(qual, bytes.TrimSpace(sc.Bytes())...)
	}
	if len(qual) != len(seq) {
		return Record{}, n, fmt.Errorf("quality length %d != sequence length %d", len(qual), len(seq))
	}
	return Record{ID: id, Desc: desc, Seq: seq, Qual: qual}, n, nil
}

func parseHeader(h []byte) (id, desc string) {
	h = bytes.TrimSpace(h)
	if i := bytes.IndexAny(h, " \t"); i >= 0 {
		return string(h[:i]), string(bytes.TrimSpace(h[i+1:]))
	}
	return string(h), ""
}

// ScanPath opens path (gzip and "-" aware) and scans it.
func ScanPath(ctx context.Context, path string, emit func(Record) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return Scan(ctx, rc, emit)
}
