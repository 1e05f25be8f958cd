package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"edustack/lms-backend/internal/domain"
)

// ErrUnsupportedFileType is returned when neither the extension nor the MIME
// type maps to a known resource category. Callers must reject the upload
// before any storage write.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var categoryByExt = map[string]domain.ResourceCategory{
	"pdf":  domain.CategoryPDF,
	"ppt":  domain.CategoryPPT,
	"pptx": domain.CategoryPPT,
	"doc":  domain.CategoryDocs,
	"docx": domain.CategoryDocs,
	"xls":  domain.CategorySheets,
	"xlsx": domain.CategorySheets,
	"mp4":  domain.CategoryVideo,
	"webm": domain.CategoryVideo,
}

var categoryByMime = map[string]domain.ResourceCategory{
	"application/pdf":               domain.CategoryPDF,
	"application/vnd.ms-powerpoint": domain.CategoryPPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": domain.CategoryPPT,
	"application/msword": domain.CategoryDocs,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.CategoryDocs,
	"application/vnd.ms-excel": domain.CategorySheets,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": domain.CategorySheets,
}

// CategoryFor maps a filename and declared MIME type to a resource category.
// The extension wins ties; the MIME type is the fallback.
func CategoryFor(originalName, mimeType string) (domain.ResourceCategory, error) {
	ext := FileExt(originalName)
	if category, ok := categoryByExt[ext]; ok {
		return category, nil
	}
	if category, ok := categoryByMime[mimeType]; ok {
		return category, nil
	}
	if strings.HasPrefix(mimeType, "video/") {
		return domain.CategoryVideo, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, firstNonEmpty(ext, mimeType))
}

// FileExt returns the lowercase extension of name without the leading dot.
func FileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// SanitizeFilename lowercases name, collapses every character outside
// [a-z0-9.-] to a single underscore, and strips leading dots.
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// ObjectKey builds the deterministic bucket key for an uploaded file. The
// millisecond timestamp prefix keeps same-named re-uploads from colliding.
func ObjectKey(baseFolder, courseCode, subjectID, sessionID string, category domain.ResourceCategory, t time.Time, sanitizedName string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%d_%s",
		baseFolder, courseCode, subjectID, sessionID, category, t.UnixMilli(), sanitizedName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
