package api

import (
	"net/http"
	"strings"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/helpers"
	"bitbucket.org/parqueoasis/tambola/middlewares"
)

// ensureDevice returns the request's device id, minting one and setting the
// device cookie when the request has none.
func ensureDevice(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) (string, error) {
	if deviceID, ok := middlewares.DeviceID(r.Context()); ok {
		return deviceID, nil
	}

	deviceID := helpers.NewDeviceID()
	if err := middlewares.SetDeviceCookie(w.Writer, r, deviceID, ctx.Config.SecretKey); err != nil {
		return "", err
	}
	w.LogInfo(map[string]interface{}{"device_id": deviceID}, "device identity issued")
	return deviceID, nil
}

// registerURL is the absolute URL the index QR code points at.
func registerURL(ctx *config.AppContext, r *http.Request) string {
	if base := strings.TrimRight(ctx.Config.BaseURL, "/"); base != "" {
		return base + "/register"
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/register"
}
