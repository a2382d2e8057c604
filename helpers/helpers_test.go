package helpers

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
	"time"

	"bitbucket.org/parqueoasis/tambola/models"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !AuthenticateHashedPassword(hash, "hunter2") {
		t.Error("Expected the password to match its hash")
	}
	if AuthenticateHashedPassword(hash, "hunter3") {
		t.Error("Expected a different password to be rejected")
	}
	if AuthenticateHashedPassword("not-a-hash", "hunter2") {
		t.Error("Expected a malformed hash to be rejected")
	}
}

func TestAdminToken(t *testing.T) {
	now := time.Now()
	token, err := GenerateAdminToken("secret", now)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}

	claims, ok := ParserTokenUnverified(token)
	if !ok {
		t.Fatal("Expected token claims")
	}
	admin, ok := claims["a"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected admin claims, got %v", claims)
	}
	if admin["admin"] != true || admin["sub"] != "admin" {
		t.Errorf("Unexpected admin claims %v", admin)
	}
	if exp := int64(claims["exp"].(float64)); exp != now.Add(adminTokenLifetime).Unix() {
		t.Errorf("Unexpected expiry %d", exp)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	if err != nil || !parsed.Valid {
		t.Errorf("Expected token to verify with its secret: %v", err)
	}
}

func TestParserTokenUnverifiedRejectsGarbage(t *testing.T) {
	if _, ok := ParserTokenUnverified("garbage"); ok {
		t.Error("Expected garbage token to be rejected")
	}
}

func TestDeviceToken(t *testing.T) {
	deviceID := NewDeviceID()
	if _, err := uuid.Parse(deviceID); err != nil {
		t.Fatalf("Expected a uuid device id, got %q", deviceID)
	}

	token, err := GenerateDeviceToken(deviceID, "secret", time.Now())
	if err != nil {
		t.Fatalf("GenerateDeviceToken: %v", err)
	}

	got, err := ParseDeviceToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseDeviceToken: %v", err)
	}
	if got != deviceID {
		t.Errorf("Expected %q, got %q", deviceID, got)
	}

	if _, err := ParseDeviceToken(token, "other-secret"); err == nil {
		t.Error("Expected a token signed with another secret to be rejected")
	}

	notUUID, err := GenerateDeviceToken("device-1", "secret", time.Now())
	if err != nil {
		t.Fatalf("GenerateDeviceToken: %v", err)
	}
	if _, err := ParseDeviceToken(notUUID, "secret"); err == nil {
		t.Error("Expected a non uuid device id to be rejected")
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, deviceClaims{DeviceID: deviceID}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Signing unsigned token: %v", err)
	}
	if _, err := ParseDeviceToken(unsigned, "secret"); err == nil {
		t.Error("Expected an unsigned token to be rejected")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Asha  ", "Asha"},
		{"Asha \t  Rao", "Asha Rao"},
		{"José", "José"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveAccents(t *testing.T) {
	if got := RemoveAccents("José Müller"); got != "Jose Muller" {
		t.Errorf("Expected accents folded, got %q", got)
	}
	if got := RemoveAccents("आशा"); got == "" {
		t.Error("Expected non latin text to survive")
	}
}

func TestQRCode(t *testing.T) {
	b, err := QRCodePNG("http://example.com/register")
	if err != nil {
		t.Fatalf("QRCodePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Expected a PNG: %v", err)
	}
	if img.Bounds().Dx() != qrSize {
		t.Errorf("Expected %dpx image, got %d", qrSize, img.Bounds().Dx())
	}

	encoded, err := QRCodeBase64("http://example.com/register")
	if err != nil {
		t.Fatalf("QRCodeBase64: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Expected base64: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Error("Expected base64 to wrap a PNG")
	}
}

func testPlayer() *models.Player {
	return &models.Player{
		ID:        1,
		Name:      "Asha",
		Code:      "abc123",
		Email:     "asha@example.com",
		Ticket:    tambola.NewSeededGenerator(7).Generate(),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBuildMessage(t *testing.T) {
	player := testPlayer()
	ed := &EmailData{
		EmailTo:      player.Email,
		NameTo:       player.Name,
		EmailFrom:    "tickets@example.com",
		NameFrom:     "Tambola",
		Subject:      "Your ticket",
		TemplateName: "ticket_mail.html",
		FileName:     "ticket.pdf",
		FileContent:  []byte("%PDF-1.4"),
		AwsSMTP:      gomail.NewDialer("localhost", 25, "", ""),
	}

	m, err := ed.BuildMessage(models.PlayerTicketHTML{AppName: "Tambola", Player: player})
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Your ticket" {
		t.Errorf("Unexpected subject %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 1 || !strings.Contains(got[0], "asha@example.com") {
		t.Errorf("Unexpected recipient %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.Contains(buf.String(), "ticket.pdf") {
		t.Error("Expected the pdf attachment")
	}

	ed.TemplateName = "missing.html"
	if _, err := ed.BuildMessage(nil); err == nil {
		t.Error("Expected an unknown template to fail")
	}
}

func TestTicketArchiveKey(t *testing.T) {
	player := testPlayer()
	if got := TicketArchiveKey("ticket", player); got != "ticket/abc123.json" {
		t.Errorf("Unexpected key %q", got)
	}
	if got := TicketArchiveKey("", player); got != "abc123.json" {
		t.Errorf("Unexpected key %q", got)
	}
}

func TestParseTicketTemplate(t *testing.T) {
	r := RequestPdf{}
	if err := r.ParseTemplate("ticket_pdf.html", models.PlayerTicketHTML{AppName: "Tambola", Player: testPlayer()}); err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	if !strings.Contains(r.body, "abc123") {
		t.Errorf("Expected rendered ticket body, got %q", r.body)
	}
}

func TestGeneratePDFWithoutDocument(t *testing.T) {
	r := RequestPdf{}
	if _, err := r.GeneratePDF(); err == nil {
		t.Error("Expected an empty request to fail before invoking wkhtmltopdf")
	}
}
