package util

import (
	"bytes"
	"io"
	"testing"
)

func TestSniffContentRewinds(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	r := bytes.NewReader(png)

	mimeType, err := SniffContent(r, MimeImage)
	if err != nil {
		t.Fatalf("SniffContent: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mime = %q", mimeType)
	}
	rest, _ := io.ReadAll(r)
	if !bytes.Equal(rest, png) {
		t.Errorf("reader not rewound, got %d bytes", len(rest))
	}
}

func TestSniffContentRejects(t *testing.T) {
	if _, err := SniffContent(bytes.NewReader([]byte("just some text")), MimeVideo); err == nil {
		t.Error("plain text accepted as video")
	}
}
