package media

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is enough of a PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAttachmentByExtension(t *testing.T) {
	raw := append(append([]byte{}, pngHeader...), []byte("pixels")...)
	path := writeFile(t, "shot.png", raw)

	att, name, err := LoadAttachment(path)
	if err != nil {
		t.Fatalf("LoadAttachment: %v", err)
	}
	if name != "shot.png" {
		t.Errorf("name = %q", name)
	}
	if att.MimeType != "image/png" {
		t.Errorf("mime = %q", att.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Error("payload does not round-trip")
	}
}

func TestLoadAttachmentSniffsUnknownExtension(t *testing.T) {
	raw := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	path := writeFile(t, "upload.bin", raw)

	att, _, err := LoadAttachment(path)
	if err != nil {
		t.Fatalf("LoadAttachment: %v", err)
	}
	if att.MimeType != "image/png" {
		t.Errorf("sniffed mime = %q", att.MimeType)
	}
}

func TestLoadAttachmentRejectsNonImage(t *testing.T) {
	path := writeFile(t, "notes.bin", []byte("plain text, not an image"))
	if _, _, err := LoadAttachment(path); err == nil {
		t.Fatal("expected error for non-image file")
	}
}

func TestLoadAttachmentRejectsEmptyAndMissing(t *testing.T) {
	path := writeFile(t, "empty.png", nil)
	if _, _, err := LoadAttachment(path); err == nil {
		t.Error("expected error for empty file")
	}
	if _, _, err := LoadAttachment(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadAttachmentRejectsOversize(t *testing.T) {
	big := make([]byte, maxAttachmentSize+1)
	copy(big, pngHeader)
	path := writeFile(t, "huge.png", big)

	_, _, err := LoadAttachment(path)
	if err == nil || !strings.Contains(err.Error(), "attachment limit") {
		t.Errorf("err = %v", err)
	}
}

func TestCaption(t *testing.T) {
	got := Caption("shot.png", "what is this?")
	if got != "[Attached File: shot.png]\nwhat is this?" {
		t.Errorf("caption = %q", got)
	}
}
