package integration

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"mappy/internal/app"
)

func TestCanceledRun_Exit130(t *testing.T) {
	fx := newFixture(t, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := app.RunContext(ctx, []string{fx.ref, fx.reads}, io.Discard, io.Discard)
	assert.Equal(t, 130, code)
}
