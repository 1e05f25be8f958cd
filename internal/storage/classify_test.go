package storage

import (
	"testing"
	"time"

	"edustack/lms-backend/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCategoryForKnownExtensions(t *testing.T) {
	cases := map[string]domain.ResourceCategory{
		"slides.pdf":   domain.CategoryPDF,
		"deck.ppt":     domain.CategoryPPT,
		"deck.pptx":    domain.CategoryPPT,
		"notes.doc":    domain.CategoryDocs,
		"notes.docx":   domain.CategoryDocs,
		"marks.xls":    domain.CategorySheets,
		"marks.xlsx":   domain.CategorySheets,
		"lecture.mp4":  domain.CategoryVideo,
		"lecture.webm": domain.CategoryVideo,
	}
	for name, want := range cases {
		got, err := CategoryFor(name, "")
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
}

func TestCategoryForExtensionWinsOverMime(t *testing.T) {
	got, err := CategoryFor("lecture.pdf", "video/mp4")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryPDF, got)
}

func TestCategoryForMimeFallback(t *testing.T) {
	got, err := CategoryFor("upload.bin", "application/pdf")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryPDF, got)

	got, err = CategoryFor("clip", "video/quicktime")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryVideo, got)
}

func TestCategoryForUnsupported(t *testing.T) {
	_, err := CategoryFor("archive.zip", "application/zip")
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = CategoryFor("", "")
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "my_lecture_notes.pdf", SanitizeFilename("My Lecture  Notes.pdf"))
	require.Equal(t, "rapport-2024.docx", SanitizeFilename("Rapport-2024.docx"))
	require.Equal(t, "hidden.pdf", SanitizeFilename("..hidden.pdf"))
	require.Equal(t, "a_b_c", SanitizeFilename("a%%b##c"))
}

func TestObjectKeyLayout(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	key := ObjectKey("lms", "GO101", "sub1", "ses1", domain.CategoryPDF, at, "notes.pdf")
	require.Equal(t, "lms/GO101/sub1/ses1/pdf/1700000000000_notes.pdf", key)
}

func TestFileExt(t *testing.T) {
	require.Equal(t, "pdf", FileExt("Report.PDF"))
	require.Equal(t, "", FileExt("noext"))
	require.Equal(t, "gz", FileExt("dump.tar.gz"))
}
