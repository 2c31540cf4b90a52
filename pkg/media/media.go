// Package media loads user file attachments for chat requests.
package media

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/alphastudio/neuralcore/pkg/chat"
)

// maxAttachmentSize caps raw attachment bytes (base64 adds ~33% on the wire).
const maxAttachmentSize = 5 * 1024 * 1024

// imageExts maps file extensions to MIME types for supported image formats.
var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// LoadAttachment reads an image file from disk and returns it base64-encoded
// with its MIME type, plus the bare file name for transcript labeling.
func LoadAttachment(path string) (*chat.Attachment, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	fileName := filepath.Base(path)

	if info.Size() == 0 {
		return nil, "", fmt.Errorf("%s is empty", fileName)
	}
	if info.Size() > maxAttachmentSize {
		return nil, "", fmt.Errorf("%s exceeds the %d MB attachment limit", fileName, maxAttachmentSize/(1024*1024))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	mimeType, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	if !ok {
		// No recognized extension, sniff the content instead.
		mimeType = http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, "", fmt.Errorf("%s is not a supported image", fileName)
		}
	}

	return &chat.Attachment{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, fileName, nil
}

// Caption prefixes a prompt with the attachment label shown in transcripts.
func Caption(fileName, prompt string) string {
	return fmt.Sprintf("[Attached File: %s]\n%s", fileName, prompt)
}
