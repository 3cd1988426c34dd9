package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

func TestFromUploadPlainText(t *testing.T) {
	res, err := FromUpload(strings.NewReader("hello world"), "/tmp/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "notes.txt", res.Metadata["source"])
}

func TestFromUploadMarkdown(t *testing.T) {
	res, err := FromUpload(strings.NewReader("# Title\n\nbody"), "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody", res.Text)
}

func TestFromUploadUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"report.docx", "archive.zip", "image.png", "noext"} {
		_, err := FromUpload(strings.NewReader("data"), name)
		assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat, name)
	}
}

func TestFromUploadCorruptPDF(t *testing.T) {
	_, err := FromUpload(strings.NewReader("this is not a pdf"), "broken.pdf")
	assert.ErrorIs(t, err, apperr.ErrCorruptFile)
}

func TestFromUploadEmptyPDF(t *testing.T) {
	_, err := FromUpload(strings.NewReader(""), "empty.pdf")
	assert.ErrorIs(t, err, apperr.ErrCorruptFile)
}
