package invite

import (
	"errors"
	"net/url"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

type QRGenerator struct {
	inviteURL string
	size      int
}

func NewQRGenerator(inviteURL string, size int) (*QRGenerator, error) {
	u, err := url.Parse(inviteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invite url must be absolute")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{inviteURL: inviteURL, size: size}, nil
}

func (q *QRGenerator) URL() string {
	return q.inviteURL
}

// PNG renders the invitation link as a QR code.
func (q *QRGenerator) PNG() ([]byte, error) {
	return qrcode.Encode(q.inviteURL, qrcode.Medium, q.size)
}
