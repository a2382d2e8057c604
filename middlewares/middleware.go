package middlewares

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/helpers"
	"bitbucket.org/parqueoasis/tambola/models"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	jwtmiddleware "github.com/mfuentesg/go-jwtmiddleware"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

const (
	DeviceCookie = "device_token"
	AdminCookie  = "admin_token"

	adminTokenParam    = "token"
	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

type deviceKey struct{}
type adminKey struct{}

func jwtErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	rw := NewResponseWriter(w, config.Logger(r.Context()))
	if err != nil && err.Error() == "Token is expired" {
		rw.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"), WithErrorType(1))
		return
	}
	rw.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
}

func NewJWTMiddleware(secret []byte) *jwtmiddleware.Middleware {
	return jwtmiddleware.New(
		jwtmiddleware.WithErrorHandler(jwtErrorHandler),
		jwtmiddleware.WithSigningMethod(jwt.SigningMethodHS256),
		jwtmiddleware.WithSignKey(secret),
		jwtmiddleware.WithUserProperty("_jwt-token"),
	)
}

// LoggerRequest attaches a request scoped logger to the request context.
func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	requestLogger := log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     r.Method,
		"query":      loggableQuery(r),
		"host":       r.Host,
		"url":        r.URL.Path,
	})
	requestLogger.Info("logger_request")
	next(rw, r.WithContext(config.WithLogger(r.Context(), requestLogger)))
}

// loggableQuery returns the request query without the admin token.
func loggableQuery(r *http.Request) url.Values {
	q := r.URL.Query()
	if q.Has(adminTokenParam) {
		q.Set(adminTokenParam, "[redacted]")
	}
	return q
}

// DeviceMiddleware reads the signed device cookie and stores the device id in
// the request context. Missing or forged cookies leave the context empty.
func DeviceMiddleware(secret string) negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		cookie, err := r.Cookie(DeviceCookie)
		if err != nil || cookie.Value == "" {
			next(rw, r)
			return
		}

		deviceID, err := helpers.ParseDeviceToken(cookie.Value, secret)
		if err != nil {
			config.Logger(r.Context()).WithError(err).Warn("ignoring invalid device cookie")
			next(rw, r)
			return
		}

		next(rw, r.WithContext(WithDeviceID(r.Context(), deviceID)))
	})
}

func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceKey{}, deviceID)
}

// DeviceID returns the device identity of the request, if any.
func DeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(deviceKey{}).(string)
	return deviceID, ok && deviceID != ""
}

// SetDeviceCookie mints a signed cookie for deviceID.
func SetDeviceCookie(w http.ResponseWriter, r *http.Request, deviceID string, secret string) error {
	token, err := helpers.GenerateDeviceToken(deviceID, secret, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   deviceCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func SetAdminCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// AdminTokenFromRequest copies the admin token from the cookie or the token
// query parameter into the Authorization header so the JWT middleware sees it.
func AdminTokenFromRequest() negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		if r.Header.Get("Authorization") == "" {
			token := r.URL.Query().Get(adminTokenParam)
			if token == "" {
				if cookie, err := r.Cookie(AdminCookie); err == nil {
					token = cookie.Value
				}
			}
			if token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next(rw, r)
	})
}

// AdminMiddleware decodes the verified admin claims into the request context
// and rejects tokens that do not carry them.
func AdminMiddleware() negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		token := strings.Split(r.Header.Get("Authorization"), " ")
		if len(token) == 2 {
			data, _ := helpers.ParserTokenUnverified(token[1])
			if tokenParse, ok := data["a"].(map[string]interface{}); ok {
				info := models.InfoAdmin{}
				_data := map[string]interface{}{
					"Subject": tokenParse["sub"],
					"IsAdmin": tokenParse["admin"],
				}
				if iat, ok := data["iat"].(float64); ok {
					_data["IssuedAt"] = int64(iat)
				}
				if err := mapstructure.Decode(_data, &info); err == nil && info.IsAdmin {
					next(rw, r.WithContext(context.WithValue(r.Context(), adminKey{}, info)))
					return
				}
			}
		}
		jwtErrorHandler(rw, r, nil)
	})
}

// Admin returns the admin claims of the request, if any.
func Admin(ctx context.Context) (models.InfoAdmin, bool) {
	info, ok := ctx.Value(adminKey{}).(models.InfoAdmin)
	return info, ok
}
