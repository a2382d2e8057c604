package helpers

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost         = 12
	adminTokenLifetime = 12 * time.Hour
)

func ParserTokenUnverified(tokenStr string) (jwt.MapClaims, bool) {
	var p jwt.Parser
	token, _, err := p.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	tokendata, ok := token.Claims.(jwt.MapClaims)
	return tokendata, ok
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func AuthenticateHashedPassword(hashed string, inputPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(inputPassword))
	return err == nil
}

// GenerateAdminToken signs an admin session token.
func GenerateAdminToken(jwtSecret string, now time.Time) (string, error) {
	claims := struct {
		Admin map[string]interface{} `json:"a"`
		jwt.StandardClaims
	}{
		map[string]interface{}{
			"sub":   "admin",
			"admin": true,
		},
		jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(adminTokenLifetime).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		return "", err
	}

	return token, nil
}

type deviceClaims struct {
	DeviceID string `json:"d"`
	jwt.StandardClaims
}

// NewDeviceID mints a device identity.
func NewDeviceID() string {
	return uuid.New().String()
}

// GenerateDeviceToken signs deviceID for the device cookie.
func GenerateDeviceToken(deviceID string, jwtSecret string, now time.Time) (string, error) {
	claims := deviceClaims{
		DeviceID: deviceID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: now.Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

// ParseDeviceToken verifies a device cookie and returns its device id.
func ParseDeviceToken(tokenStr string, jwtSecret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &deviceClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed parsing device token")
	}

	claims, ok := token.Claims.(*deviceClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid device token")
	}
	if _, err := uuid.Parse(claims.DeviceID); err != nil {
		return "", errors.Wrap(err, "invalid device id")
	}

	return claims.DeviceID, nil
}
