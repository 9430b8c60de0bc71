// Command totpgen prints the admin settings for a new deployment: the
// bcrypt hash of a password and, unless -no-totp is given, a fresh
// authenticator secret with its QR code written to a PNG file.
//
//	go run ./cmd/totpgen -email me@example.com -qr admin-qr.png
//
// The password is read from the ADMIN_PASSWORD environment variable or,
// when that is empty, from the first line of standard input.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"portfolio/internal/auth"
)

const minPasswordLength = 12

func main() {
	email := flag.String("email", "", "admin email address (required)")
	issuer := flag.String("issuer", "Portfolio", "issuer name shown in the authenticator app")
	qrPath := flag.String("qr", "admin-totp.png", "where to write the QR code PNG")
	noTOTP := flag.Bool("no-totp", false, "skip the authenticator secret")
	flag.Parse()

	if err := run(os.Stdout, os.Stdin, *email, *issuer, *qrPath, !*noTOTP); err != nil {
		slog.Error("totpgen failed", "error", err)
		os.Exit(1)
	}
}

func run(out io.Writer, in io.Reader, email, issuer, qrPath string, withTOTP bool) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("-email is required")
	}

	password, err := readPassword(in)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ADMIN_EMAIL=%s\n", email)
	// Single quotes keep the $ signs in the hash intact in .env files.
	fmt.Fprintf(out, "ADMIN_PASSWORD_HASH='%s'\n", hash)

	if !withTOTP {
		return nil
	}

	enrollment, err := auth.Enroll(issuer, email)
	if err != nil {
		return err
	}
	if err := os.WriteFile(qrPath, enrollment.QRCode, 0o600); err != nil {
		return fmt.Errorf("write qr code: %w", err)
	}
	fmt.Fprintf(out, "ADMIN_TOTP_SECRET=%s\n", enrollment.Secret)
	fmt.Fprintf(os.Stderr, "Scan %s with your authenticator app, or enter the secret by hand.\n", qrPath)
	return nil
}

func readPassword(in io.Reader) (string, error) {
	if p := os.Getenv("ADMIN_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
