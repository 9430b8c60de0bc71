package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// Enrollment is a freshly generated authenticator secret.
type Enrollment struct {
	Secret string // base32, goes in ADMIN_TOTP_SECRET
	URL    string // otpauth:// URL encoded in the QR code
	QRCode []byte // PNG
}

// Enroll generates a TOTP secret for email and a QR code an authenticator
// app can scan.
func Enroll(issuer, email string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	return &Enrollment{Secret: key.Secret(), URL: key.URL(), QRCode: png}, nil
}
