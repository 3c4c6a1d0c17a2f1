package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "simple Tj",
			stream: "BT /F1 12 Tf 72 712 Td (Hello, world) Tj ET",
			want:   "Hello, world",
		},
		{
			name:   "lines via Td and T*",
			stream: "BT /F1 12 Tf (Revenue grew) Tj 0 -14 Td (12% y/y) Tj T* (Guidance raised) Tj ET",
			want:   "Revenue grew\n12% y/y\nGuidance raised",
		},
		{
			name:   "TJ with kerning",
			stream: "BT [(Op)-20(er)10(ating)-350(margin)] TJ ET",
			want:   "Operating margin",
		},
		{
			name:   "escapes and nesting",
			stream: `BT (Q\(1\) \\ (nested) \101BC) Tj ET`,
			want:   `Q(1) \ (nested) ABC`,
		},
		{
			name:   "quote operator",
			stream: "BT (first) Tj (second) ' ET",
			want:   "first\nsecond",
		},
		{
			name:   "hex string",
			stream: "BT <48656C6C6F> Tj ET",
			want:   "Hello",
		},
		{
			name:   "dictionaries and comments ignored",
			stream: "/Span << /MCID 0 >> BDC % comment (not text)\nBT (kept) Tj ET EMC",
			want:   "kept",
		},
		{
			name:   "no text",
			stream: "q 1 0 0 1 0 0 cm 0 0 100 100 re f Q",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentText([]byte(tt.stream)))
		})
	}
}

func TestReadPagesOrdersByPageNumber(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("call_Content_page_10.txt", "BT (ten) Tj ET")
	write("call_Content_page_2.txt", "BT (two) Tj ET")
	write("call_Content_page_1.txt", "BT (one) Tj ET")
	write("call_Content_page_3.txt", "q Q")
	write("unrelated.txt", "BT (skip) Tj ET")

	pages, err := readPages(dir)
	require.NoError(t, err)
	assert.Len(t, pages, 4)
	assert.Equal(t, "one\n\ntwo\n\nten", joinPages(pages))
}

func TestExtractTextErrors(t *testing.T) {
	e := NewExtractor(zerolog.Nop())

	_, err := e.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ExtractText(ctx, "whatever.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
