package challenge

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"fastingFriendsAPI/internal/apperr"
)

const (
	InviteCodeLength   = 6
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	JoinPath           = "/join-challenge"
)

// NewInviteCode samples 6 characters from a 36-character alphabet. Codes are
// not checked for uniqueness.
func NewInviteCode() string {
	var b strings.Builder
	b.Grow(InviteCodeLength)
	for i := 0; i < InviteCodeLength; i++ {
		b.WriteByte(inviteCodeAlphabet[rand.IntN(len(inviteCodeAlphabet))])
	}
	return b.String()
}

// NormalizeInviteCode trims and upper-cases user input and checks its format.
func NormalizeInviteCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != InviteCodeLength {
		return "", apperr.InvalidInviteCode(raw)
	}
	for _, c := range code {
		if !strings.ContainsRune(inviteCodeAlphabet, c) {
			return "", apperr.InvalidInviteCode(raw)
		}
	}
	return code, nil
}

func ShareLink(baseURL, code string) string {
	return fmt.Sprintf("%s%s?code=%s", strings.TrimRight(baseURL, "/"), JoinPath, url.QueryEscape(code))
}

func WhatsAppLink(shareLink, challengeName string) string {
	text := fmt.Sprintf("Join my fasting challenge %q on My Fasting Friends: %s", challengeName, shareLink)
	return "https://wa.me/?text=" + url.QueryEscape(text)
}

// ParseShareLink extracts the invite code from a join link so the join form
// can be prefilled. Bare codes are accepted too.
func ParseShareLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "?") && !strings.Contains(link, "/") {
		return NormalizeInviteCode(link)
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", apperr.InvalidInviteCode(link)
	}
	return NormalizeInviteCode(u.Query().Get("code"))
}

// ShareQRCode renders the link as a base64 PNG.
func ShareQRCode(link string) (string, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
