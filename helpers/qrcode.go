package helpers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCodePNG returns a PNG QR code for content.
func QRCodePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Low, qrSize)
}

// QRCodeBase64 returns a base64 PNG QR code ready for a data URI.
func QRCodeBase64(content string) (string, error) {
	img, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}

	return EncodeImage(img.Image(qrSize))
}

func EncodeImage(m image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
