package middlewares

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"bitbucket.org/parqueoasis/tambola/templates"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer   http.ResponseWriter
	Logger   *log.Entry
	Language string
}

func NewResponseWriter(w http.ResponseWriter, logger *log.Entry) *ResponseWriter {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &ResponseWriter{
		Writer:   w,
		Logger:   logger,
		Language: Language.English,
	}
}

type generalResponse struct {
	Errors  []*errorResponse `json:"errors"`
	Success bool             `json:"success"`
	Data    interface{}      `json:"data"`
}

type errorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Scope   string      `json:"scope"`
	Type    int         `json:"type"`
	Data    interface{} `json:"data"`
}

type ErrOption func(*errorResponse)

func WithErrorType(errType int) ErrOption {
	return func(err *errorResponse) {
		err.Type = errType
	}
}

func WithErrorScope(scope string) ErrOption {
	return func(err *errorResponse) {
		err.Scope = scope
	}
}

func (r *ResponseWriter) logger() *log.Entry {
	if r.Logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Logger
}

func (r *ResponseWriter) writeJSONResponse(code int, errors []*errorResponse, data interface{}) {
	response := &generalResponse{Errors: errors, Success: errors == nil, Data: data}
	r.writePlainJSONResponse(code, response)
}

func (r *ResponseWriter) writePlainJSONResponse(statusCode int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
		return
	}

	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(statusCode)

	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

// WriteJSON writes data as JSON and logs the outcome. For error codes without
// data the message becomes the body.
func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	fields := log.Fields{"status_code": statusCode}
	if statusCode >= 200 && statusCode <= 299 {
		r.logger().WithFields(fields).Info("success")
	}
	if statusCode >= 300 {
		if data == nil {
			data = map[string]interface{}{
				"error": message,
			}
		}
		if err == nil {
			err = errors.New(message)
		}
		fields["errors"] = data
		r.logger().WithFields(fields).Error(err)
	}
	if statusCode == http.StatusNoContent {
		r.Writer.WriteHeader(statusCode)
		return
	}
	r.writePlainJSONResponse(statusCode, data)
}

// Write is WriteJSON with a message translated to the request language.
func (r *ResponseWriter) Write(statusCode int, data interface{}, err error, message *NewRM) {
	r.WriteJSON(statusCode, data, err, message.In(r.Language))
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write([]byte(msg)); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

func (r *ResponseWriter) Error(code int, msg string, opts ...ErrOption) {
	err := &errorResponse{Code: code, Message: msg}
	for _, With := range opts {
		With(err)
	}
	r.writeJSONResponse(code, []*errorResponse{err}, nil)
}

// HTML renders the named page template. Rendering happens into a buffer so a
// template failure still produces a clean 500.
func (r *ResponseWriter) HTML(code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.Pages.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger().WithError(err).WithField("template", name).Error("failed rendering template")
		r.String(http.StatusInternalServerError, "internal server error")
		return
	}

	r.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := buf.WriteTo(r.Writer); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
	r.logger().WithFields(log.Fields{"status_code": code, "template": name}).Info("success")
}

// Blob writes raw bytes with the given content type.
func (r *ResponseWriter) Blob(code int, contentType string, b []byte) {
	r.Writer.Header().Set("Content-Type", contentType)
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithError(err).Warn("could not write response")
	}
}

func (r *ResponseWriter) Redirect(req *http.Request, path string) {
	http.Redirect(r.Writer, req, path, http.StatusSeeOther)
}

func (r *ResponseWriter) LogError(err error, message string) {
	r.logger().WithError(err).Error(message)
}

func (r *ResponseWriter) LogInfo(fields log.Fields, message string) {
	r.logger().WithFields(fields).Info(message)
}
