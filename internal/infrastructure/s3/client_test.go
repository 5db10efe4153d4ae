package s3infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":       "image/jpeg",
		"avatar.png":      "image/png",
		"budget.xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"contract.pdf":    "application/pdf",
		"notes.txt":       "text/plain",
		"archive.tar.bz2": "application/octet-stream",
		"noext":           "application/octet-stream",
	}
	for name, want := range cases {
		assert.Equal(t, want, DetectContentType(name), name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd":     "passwd",
		`C:\Users\ana\cv.docx`: "cv.docx",
		"my budget (v2).xlsx":  "my_budget__v2_.xlsx",
		"..":                   "_",
		"":                     "_",
		"/":                    "_",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	assert.Equal(t, "events/e1/documents/1767225600123_plan.pdf", ObjectKey("events/e1/documents/", "plan.pdf", now))
	assert.Equal(t, "users/u1/avatar/1767225600123_me_.png", ObjectKey("users/u1/avatar", "me!.png", now))
}
