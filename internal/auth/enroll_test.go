package auth_test

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/auth"
)

func TestEnroll(t *testing.T) {
	e, err := auth.Enroll("Jane Doe", adminEmail)
	require.NoError(t, err)

	assert.NotEmpty(t, e.Secret)
	assert.True(t, strings.HasPrefix(e.URL, "otpauth://totp/"), e.URL)
	assert.Contains(t, e.URL, "secret="+e.Secret)

	img, err := png.Decode(bytes.NewReader(e.QRCode))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	// The secret works as a sign-in second factor.
	code, err := totp.GenerateCode(e.Secret, time.Now())
	require.NoError(t, err)
	id := auth.Identity{Email: adminEmail, TOTPSecret: e.Secret}
	assert.True(t, id.CheckCode(code))
}

func TestEnrollUniqueSecrets(t *testing.T) {
	a, err := auth.Enroll("Portfolio", adminEmail)
	require.NoError(t, err)
	b, err := auth.Enroll("Portfolio", adminEmail)
	require.NoError(t, err)
	assert.NotEqual(t, a.Secret, b.Secret)
}
