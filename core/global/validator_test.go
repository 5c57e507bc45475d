package global

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNoXSS(t *testing.T) {
	InitValidator()

	cases := []struct {
		name  string
		value string
		ok    bool
	}{
		{"tên thường", "World Report", true},
		{"tên tiếng Việt", "Báo cáo quý 1/2026", true},
		{"script tag", "<script>alert(1)</script>", false},
		{"javascript uri", "JavaScript:alert(1)", false},
		{"event handler", "x onerror=alert(1)", false},
		{"iframe", "<IFRAME src=x>", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate.Var(tc.value, "no_xss")
			if tc.ok {
				assert.NoError(t, err, "giá trị an toàn không được bị chặn: %q", tc.value)
			} else {
				assert.Error(t, err, "giá trị nguy hiểm phải bị chặn: %q", tc.value)
			}
		})
	}
}
