package challenge

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/apperr"
)

var inviteCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestNewInviteCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewInviteCode()
		assert.Regexp(t, inviteCodePattern, code)
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	code, err := NormalizeInviteCode("  ab12cd ")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", code)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "AB-12C"} {
		_, err := NormalizeInviteCode(bad)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidInviteCode), "input %q", bad)
	}
}

func TestShareLinkRoundTrip(t *testing.T) {
	link := ShareLink("https://fasting.example.com/", "QX7P2M")
	assert.Equal(t, "https://fasting.example.com/join-challenge?code=QX7P2M", link)

	code, err := ParseShareLink(link)
	require.NoError(t, err)
	assert.Equal(t, "QX7P2M", code)

	code, err = ParseShareLink("qx7p2m")
	require.NoError(t, err)
	assert.Equal(t, "QX7P2M", code)

	_, err = ParseShareLink("https://fasting.example.com/join-challenge")
	assert.Error(t, err)
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("https://x.test/join-challenge?code=ABC123", "March Madness")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Contains(t, u.Query().Get("text"), "https://x.test/join-challenge?code=ABC123")
	assert.Contains(t, u.Query().Get("text"), "March Madness")
}

func TestShareQRCode(t *testing.T) {
	encoded, err := ShareQRCode("https://x.test/join-challenge?code=ABC123")
	require.NoError(t, err)

	png, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}
