package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("admin@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.org"))
	assert.Error(t, ValidateEmail("admin@"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"+251911000001", false},
		{"0911 000 001", false},
		{"+1-555-010-9999", false},
		{"12345", true},
		{"phone-number", true},
		{"+251911000001000000000", true},
		{"0911-00000-", true},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUploadURL(t *testing.T) {
	assert.NoError(t, ValidateUploadURL("https://cdn.example.com/uploads/a.jpg"))
	assert.NoError(t, ValidateUploadURL("http://localhost:9000/b.mp4"))
	assert.Error(t, ValidateUploadURL("ftp://example.com/a.jpg"))
	assert.Error(t, ValidateUploadURL("/relative/path.jpg"))
	assert.Error(t, ValidateUploadURL("https://"))
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" cl-001", "cl-002", "", "cl-001", "  ", "cl-003 "})
	assert.Equal(t, []string{"cl-001", "cl-002", "cl-003"}, got)

	assert.Empty(t, NormalizeIDs(nil))
	assert.Empty(t, NormalizeIDs([]string{" ", ""}))
}

func TestTrimmedPtr(t *testing.T) {
	assert.Nil(t, TrimmedPtr(nil))

	blank := "   "
	assert.Nil(t, TrimmedPtr(&blank))

	note := "  looks good "
	got := TrimmedPtr(&note)
	if assert.NotNil(t, got) {
		assert.Equal(t, "looks good", *got)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString(" hello\x00 world\x7f "))
}
