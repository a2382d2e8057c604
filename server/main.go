package server

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/middlewares"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	joonix "github.com/joonix/log"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func recoveryHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			config.Logger(r.Context()).Error(err)
			middlewares.NewResponseWriter(w, config.Logger(r.Context())).Error(http.StatusInternalServerError, "internal server error")
			return
		}
	}()
	next(w, r)
}

type AppHandlerFunc func(*config.AppContext, *middlewares.ResponseWriter, *http.Request)

type AppHandler struct {
	Context     *config.AppContext
	HandlerFunc AppHandlerFunc
}

func (a *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := middlewares.NewResponseWriter(w, config.Logger(r.Context()))
	rw.GetRequestLanguage(r)
	a.HandlerFunc(a.Context, rw, r)
}

type Route struct {
	Path        string
	Handler     AppHandlerFunc
	Methods     []string
	IsProtected bool
}

func NewRouter(ctx *config.AppContext, routes []*Route) *mux.Router {
	router := mux.NewRouter()
	for _, r := range routes {
		handler := &AppHandler{Context: ctx, HandlerFunc: r.Handler}
		if r.IsProtected {
			router.Handle(r.Path, negroni.New(
				middlewares.AdminTokenFromRequest(),
				negroni.HandlerFunc(middlewares.NewJWTMiddleware([]byte(ctx.Config.SecretKey)).HandlerNext),
				middlewares.AdminMiddleware(),
				negroni.Wrap(handler),
			)).Methods(r.Methods...)
			continue
		}
		router.Handle(r.Path, handler).Methods(r.Methods...)
	}
	return router
}

func GetAppContext() *ContextWrapper {
	log.SetFormatter(joonix.NewFormatter())
	var conf config.Configuration
	if err := envdecode.Decode(&conf); err != nil {
		log.WithError(err).Fatal("could not load the app configuration")
	}

	return NewContextWrapper(conf)
}

func NewContextWrapper(conf config.Configuration) *ContextWrapper {
	return &ContextWrapper{
		Context: &config.AppContext{
			Config:    conf,
			Generator: tambola.NewGenerator(nil),
		},
	}
}

type ContextWrapper struct {
	Context *config.AppContext
}

func (wrapper *ContextWrapper) CreateSQLConnection() {
	conn, err := config.CreateConnectionSQL(wrapper.Context.Config.SQL)
	if err != nil {
		log.Fatal(err)
	}
	conn.SetConnMaxLifetime(time.Minute * 5)
	wrapper.Context.SQLConn = conn
	wrapper.Context.DB, err = db.New(conn)
	if err != nil {
		log.WithFields(log.Fields{
			"error":  err,
			"driver": conn.DriverName(),
		}).Fatal("failed to connect")
	}
	if err := db.Migrate(conn); err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}
}

func (wrapper *ContextWrapper) CreateSMTPConnection() {
	wrapper.Context.AwsSMTP = config.CreateNewConnectionSMTP(wrapper.Context.Config.AwsSMTP)
	if wrapper.Context.AwsSMTP == nil {
		log.Info("smtp not configured, tickets will not be mailed")
	}
}

func (wrapper *ContextWrapper) CreateNewSessionS3() {
	session, err := config.CreateNewSessionS3(wrapper.Context.Config.AwsS3)
	if err != nil {
		log.Fatal(errors.Errorf("failed to create new session s3 - %s", err.Error()))
	}
	if session == nil {
		log.Info("s3 not configured, tickets will not be archived")
	}
	wrapper.Context.AwsS3 = session
}

func UpServer(routes []*Route, wrapper *ContextWrapper) {
	server := createServer(wrapper.Context, routes)

	if wrapper.Context.SQLConn != nil {
		defer wrapper.Context.SQLConn.Close()
	}

	log.Info("Environment " + wrapper.Context.Config.Environment)
	log.Info("Listening on " + server.Addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// NewHandler builds the full middleware chain around the routes.
func NewHandler(context *config.AppContext, routes []*Route) http.Handler {
	n := negroni.New()
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
	})
	n.Use(c)
	n.Use(negroni.HandlerFunc(middlewares.LoggerRequest))
	n.UseFunc(recoveryHandler)
	n.Use(middlewares.DeviceMiddleware(context.Config.SecretKey))
	n.UseHandler(NewRouter(context, routes))
	return n
}

func createServer(context *config.AppContext, routes []*Route) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", context.Config.Port),
		ReadTimeout:  time.Duration(context.Config.Timeout) * time.Second,
		WriteTimeout: time.Duration(context.Config.Timeout) * time.Second,
		Handler:      NewHandler(context, routes),
	}
}
