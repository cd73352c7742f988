package photo

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIMEAllowed(t *testing.T) {
	tests := []struct {
		allowed     []string
		contentType string
		want        bool
	}{
		{[]string{"image/*"}, "image/jpeg", true},
		{[]string{"image/*"}, "IMAGE/PNG", true},
		{[]string{"image/*"}, "image/png; charset=binary", true},
		{[]string{"image/*"}, "application/pdf", false},
		{[]string{"image/*"}, "imagex/png", false},
		{[]string{"image/jpeg", "image/png"}, "image/gif", false},
		{[]string{"image/jpeg", " image/png "}, "image/png", true},
		{[]string{"*/*"}, "text/plain", true},
		{[]string{"image/*"}, "", false},
		{nil, "image/jpeg", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MIMEAllowed(tt.allowed, tt.contentType), "%v %q", tt.allowed, tt.contentType)
	}
}

func TestDecodeBase64Payload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	std := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name         string
		input        string
		wantDeclared string
	}{
		{name: "standard", input: std},
		{name: "unpadded", input: base64.RawStdEncoding.EncodeToString(raw)},
		{name: "url alphabet", input: base64.URLEncoding.EncodeToString(raw)},
		{name: "wrapped lines", input: std[:4] + "\n" + std[4:] + "\r\n"},
		{name: "data url", input: "data:image/jpeg;base64," + std, wantDeclared: "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, declared, err := decodeBase64Payload(tt.input)
			require.NoError(t, err)
			assert.Equal(t, raw, data)
			assert.Equal(t, tt.wantDeclared, declared)
		})
	}
}

func TestDecodeBase64PayloadRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "   ", "!!!not base64!!!", "data:image/png,rawbytes", "data:image/png;base64", "===="} {
		_, _, err := decodeBase64Payload(input)
		assert.Error(t, err, "%q", input)
	}
}
