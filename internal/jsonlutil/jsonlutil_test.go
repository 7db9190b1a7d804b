package jsonlutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	N int `json:"n"`
}

func encodeRow(enc *json.Encoder, r row) error { return enc.Encode(r) }

func TestStart_WritesOneLinePerValue(t *testing.T) {
	var buf bytes.Buffer
	in, done := Start[row](&buf, 2, encodeRow, nil)
	for i := range 5 {
		in <- row{N: i}
	}
	close(in)
	require.NoError(t, <-done)
	assert.Equal(t, "{\"n\":0}\n{\"n\":1}\n{\"n\":2}\n{\"n\":3}\n{\"n\":4}\n", buf.String())
}

type failWriter struct{ err error }

func (f failWriter) Write([]byte) (int, error) { return 0, f.err }

func TestStart_DrainsAfterError(t *testing.T) {
	boom := errors.New("boom")
	fail := func(*json.Encoder, row) error { return boom }
	in, done := Start[row](&bytes.Buffer{}, 1, fail, nil)
	for i := range 100 {
		in <- row{N: i} // must not block after the first failure
	}
	close(in)
	assert.ErrorIs(t, <-done, boom)
}

func TestStart_SuppressesBrokenPipe(t *testing.T) {
	pipe := errors.New("pipe")
	in, done := Start[row](failWriter{pipe}, 1, encodeRow, func(err error) bool { return errors.Is(err, pipe) })
	in <- row{N: 1}
	close(in)
	assert.NoError(t, <-done)
}

func TestEncodePretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePretty(&buf, []row{{N: 1}}))
	assert.Equal(t, "[\n  {\n    \"n\": 1\n  }\n]\n", buf.String())
}
