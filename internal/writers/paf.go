package writers

import (
	"bufio"
	"fmt"
	"io"
)

// writePAFLine writes the tab-separated PAF line for one hit, with NM and the
// MD and cs tags when they were computed.
func writePAFLine(w io.Writer, m Mapped, i int) error {
	h := m.Hits[i]
	if _, err := fmt.Fprintf(w, "%s\t%d\t%s\tNM:i:%d", m.Name, m.Len, h.String(), h.NM); err != nil {
		return err
	}
	if h.MD != "" {
		if _, err := fmt.Fprintf(w, "\tMD:Z:%s", h.MD); err != nil {
			return err
		}
	}
	if h.CS != "" {
		if _, err := fmt.Fprintf(w, "\tcs:Z:%s", h.CS); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writePAF(w io.Writer, m Mapped) error {
	for i := range m.Hits {
		if err := writePAFLine(w, m, i); err != nil {
			return err
		}
	}
	return nil
}

// StreamPAF writes every Mapped received on in as it arrives. Queries
// without hits produce no lines.
func StreamPAF(out io.Writer, in <-chan Mapped) error {
	bw := bufio.NewWriter(out)
	var err error
	for m := range in {
		if err != nil {
			continue
		}
		err = writePAF(bw, m)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WritePAF writes list in order.
func WritePAF(out io.Writer, list []Mapped) error {
	bw := bufio.NewWriter(out)
	for _, m := range list {
		if err := writePAF(bw, m); err != nil {
			return err
		}
	}
	return bw.Flush()
}
