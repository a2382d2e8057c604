package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/helpers"
	"bitbucket.org/parqueoasis/tambola/middlewares"
	"bitbucket.org/parqueoasis/tambola/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	"github.com/thedevsaddam/govalidator"
)

const adminPageSize = 50

type loginPage struct {
	AppName string
	Error   string
}

type adminPage struct {
	AppName string
	Players *models.PlayersStruct
	Opts    models.GetPlayersOpts
	PrevURL string
	NextURL string
}

func AdminLoginForm(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.HTML(http.StatusOK, "login.html", loginPage{AppName: ctx.Config.AppName})
}

func AdminLogin(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	page := loginPage{AppName: ctx.Config.AppName}
	if ctx.Config.AdminPasswordHash == "" {
		page.Error = middlewares.Responses.AdminDisabled.In(w.Language)
		w.HTML(http.StatusForbidden, "login.html", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		page.Error = middlewares.Responses.FailedValidations.In(w.Language)
		w.HTML(http.StatusBadRequest, "login.html", page)
		return
	}

	var opts models.LoginOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&opts, r.PostForm); err != nil || opts.Password == "" {
		page.Error = middlewares.Responses.InvalidPassword.In(w.Language)
		w.HTML(http.StatusBadRequest, "login.html", page)
		return
	}

	if !helpers.AuthenticateHashedPassword(ctx.Config.AdminPasswordHash, opts.Password) {
		page.Error = middlewares.Responses.InvalidPassword.In(w.Language)
		w.HTML(http.StatusUnauthorized, "login.html", page)
		return
	}

	token, err := helpers.GenerateAdminToken(ctx.Config.SecretKey, time.Now())
	if err != nil {
		w.LogError(err, "failed generating admin token")
		page.Error = middlewares.Responses.InternalServerError.In(w.Language)
		w.HTML(http.StatusInternalServerError, "login.html", page)
		return
	}

	middlewares.SetAdminCookie(w.Writer, r, token)
	w.Redirect(r, "/admin")
}

func AdminLoginJSON(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	if ctx.Config.AdminPasswordHash == "" {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.AdminDisabled)
		return
	}

	var opts models.LoginOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.LoginRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	if !helpers.AuthenticateHashedPassword(ctx.Config.AdminPasswordHash, opts.Password) {
		w.Write(http.StatusUnauthorized, nil, nil, middlewares.Responses.InvalidPassword)
		return
	}

	token, err := helpers.GenerateAdminToken(ctx.Config.SecretKey, time.Now())
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.WriteJSON(http.StatusOK, &models.LoginResponse{Token: token}, nil, "")
}

func AdminPlayers(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	opts, errs := decodePlayersOpts(r)
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}
	if opts.LimitTo <= 0 {
		opts.LimitTo = adminPageSize
	}

	players, err := ctx.DB.GetPlayers(&opts)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}
	logAdminAccess(w, r, "players listed")

	page := adminPage{
		AppName: ctx.Config.AppName,
		Players: players,
		Opts:    opts,
	}
	if opts.LimitFrom > 0 {
		page.PrevURL = playersPageURL(opts, max(opts.LimitFrom-opts.LimitTo, 0))
	}
	if opts.LimitFrom+opts.LimitTo < players.Total {
		page.NextURL = playersPageURL(opts, opts.LimitFrom+opts.LimitTo)
	}

	w.HTML(http.StatusOK, "admin.html", page)
}

func GetPlayers(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	opts, errs := decodePlayersOpts(r)
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	players, err := ctx.DB.GetPlayers(&opts)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}
	logAdminAccess(w, r, "players listed")

	w.WriteJSON(http.StatusOK, players, nil, "")
}

// GetPlayer looks a player up by the code printed on the ticket.
func GetPlayer(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	player, err := ctx.DB.GetPlayerByCode(code)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.PlayerNotFound)
		return
	}
	logAdminAccess(w, r, "player looked up")

	w.WriteJSON(http.StatusOK, player, nil, "")
}

func logAdminAccess(w *middlewares.ResponseWriter, r *http.Request, message string) {
	info, _ := middlewares.Admin(r.Context())
	w.LogInfo(log.Fields{"admin": info.Subject, "token_issued_at": info.IssuedAt}, message)
}

func decodePlayersOpts(r *http.Request) (models.GetPlayersOpts, map[string][]string) {
	var opts models.GetPlayersOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetPlayersRules,
	}
	v := govalidator.New(validatorOpts)
	if errs := v.Validate(); len(errs) > 0 {
		return opts, errs
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&opts, r.URL.Query()); err != nil {
		return opts, map[string][]string{"query": {err.Error()}}
	}

	return opts, nil
}

func playersPageURL(opts models.GetPlayersOpts, from int) string {
	q := url.Values{}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	q.Set("limit_from", strconv.Itoa(from))
	q.Set("limit_to", strconv.Itoa(opts.LimitTo))
	return "/admin?" + q.Encode()
}
