package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
		warnSeen  bool
	}{
		{level: "debug", debugSeen: true, infoSeen: true, warnSeen: true},
		{level: "info", infoSeen: true, warnSeen: true},
		{level: "", infoSeen: true, warnSeen: true},
		{level: "WARN", warnSeen: true},
		{level: "error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.level)

			buf.Reset()
			l.Debug("d")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)

			buf.Reset()
			l.Info("i")
			assert.Equal(t, tt.infoSeen, buf.Len() > 0)

			buf.Reset()
			l.Warn("w")
			assert.Equal(t, tt.warnSeen, buf.Len() > 0)
		})
	}
}

func TestNewWithWriter_WritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "info").Info("cart_updated", "items", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cart_updated", rec["msg"])
	assert.EqualValues(t, 3, rec["items"])
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	l := Discard()
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
