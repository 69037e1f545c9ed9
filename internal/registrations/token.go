package registrations

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	tokenBytes = 32 // 256 bits
	qrSize     = 256
)

// generateToken returns 32 random bytes as unpadded base64url (always 43 characters).
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// registrationURL builds the shareable link for eventID carrying token.
func registrationURL(baseURL, eventID, token string) string {
	q := url.Values{}
	q.Set("eventId", eventID)
	q.Set("token", token)
	return baseURL + "/events/" + url.PathEscape(eventID) + "/register?" + q.Encode()
}

// qrDataURI encodes content as a PNG QR code data URI.
func qrDataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
