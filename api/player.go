package api

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/helpers"
	"bitbucket.org/parqueoasis/tambola/middlewares"
	"bitbucket.org/parqueoasis/tambola/models"
	"github.com/gorilla/schema"
	"github.com/lithammer/shortuuid/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/thedevsaddam/govalidator"
)

type indexPage struct {
	AppName     string
	QRCode      template.URL
	RegisterURL string
}

type registerPage struct {
	AppName string
	Error   string
	Name    string
	Email   string
}

func Index(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, err := ensureDevice(ctx, w, r)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	player, err := ctx.DB.GetPlayerByDeviceID(deviceID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player != nil {
		w.Redirect(r, "/ticket")
		return
	}

	url := registerURL(ctx, r)
	qr, err := helpers.QRCodeBase64(url)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.HTML(http.StatusOK, "index.html", indexPage{
		AppName:     ctx.Config.AppName,
		QRCode:      template.URL("data:image/png;base64," + qr),
		RegisterURL: url,
	})
}

func RegisterQRCode(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	png, err := helpers.QRCodePNG(registerURL(ctx, r))
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.Blob(http.StatusOK, "image/png", png)
}

func RegisterForm(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, err := ensureDevice(ctx, w, r)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	player, err := ctx.DB.GetPlayerByDeviceID(deviceID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player != nil {
		w.Redirect(r, "/ticket")
		return
	}

	w.HTML(http.StatusOK, "register.html", registerPage{AppName: ctx.Config.AppName})
}

func Register(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, err := ensureDevice(ctx, w, r)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	page := registerPage{AppName: ctx.Config.AppName}

	var opts models.RegisterPlayerOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := r.ParseForm(); err != nil {
		w.LogError(err, "failed parsing register form")
		page.Error = middlewares.Responses.FailedValidations.In(w.Language)
		w.HTML(http.StatusBadRequest, "register.html", page)
		return
	}
	if err := decoder.Decode(&opts, r.PostForm); err != nil {
		w.LogError(err, "failed decoding register form")
		page.Error = middlewares.Responses.FailedValidations.In(w.Language)
		w.HTML(http.StatusBadRequest, "register.html", page)
		return
	}

	page.Name = opts.Name
	page.Email = opts.Email

	validatorOpts := govalidator.Options{
		Request:  r,
		Rules:    models.RegisterPlayerRules,
		Messages: models.RegisterPlayerMessages,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		page.Error = registerFormError(errs, &opts, w.Language)
		w.HTML(http.StatusBadRequest, "register.html", page)
		return
	}

	if _, err := registerPlayer(ctx, w, deviceID, &opts); err != nil {
		switch errors.Cause(err) {
		case db.ErrDeviceRegistered:
			w.Redirect(r, "/ticket")
		case errNameRequired:
			page.Error = middlewares.Responses.NameRequired.In(w.Language)
			w.HTML(http.StatusBadRequest, "register.html", page)
		default:
			w.LogError(err, "failed registering player")
			page.Error = middlewares.Responses.InternalServerError.In(w.Language)
			w.HTML(http.StatusInternalServerError, "register.html", page)
		}
		return
	}

	w.Redirect(r, "/ticket")
}

func RegisterJSON(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.RegisterPlayerOpts
	validatorOpts := govalidator.Options{
		Request:  r,
		Rules:    models.RegisterPlayerRules,
		Messages: models.RegisterPlayerMessages,
		Data:     &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	deviceID, err := ensureDevice(ctx, w, r)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	player, err := registerPlayer(ctx, w, deviceID, &opts)
	if err != nil {
		switch errors.Cause(err) {
		case db.ErrDeviceRegistered:
			w.Write(http.StatusConflict, nil, err, middlewares.Responses.AlreadyRegistered)
		case errNameRequired:
			w.Write(http.StatusBadRequest, nil, err, middlewares.Responses.NameRequired)
		default:
			w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		}
		return
	}

	w.WriteJSON(http.StatusCreated, player, nil, "")
}

func ShowTicket(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, ok := middlewares.DeviceID(r.Context())
	if !ok {
		w.Redirect(r, "/")
		return
	}

	player, err := ctx.DB.GetPlayerByDeviceID(deviceID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player == nil {
		w.Redirect(r, "/register")
		return
	}

	w.HTML(http.StatusOK, "ticket.html", models.PlayerTicketHTML{
		AppName: ctx.Config.AppName,
		Player:  player,
	})
}

func TicketPDF(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, ok := middlewares.DeviceID(r.Context())
	if !ok {
		w.Redirect(r, "/")
		return
	}

	player, err := ctx.DB.GetPlayerByDeviceID(deviceID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player == nil {
		w.Redirect(r, "/register")
		return
	}

	pdf, err := helpers.GenerateTicketPDF(ctx.Config.AppName, player)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	w.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ticket-"+player.Code+".pdf"))
	w.Blob(http.StatusOK, "application/pdf", pdf.Bytes())
}

func GetTicket(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	deviceID, ok := middlewares.DeviceID(r.Context())
	if !ok {
		w.Write(http.StatusUnauthorized, nil, nil, middlewares.Responses.DeviceRequired)
		return
	}

	player, err := ctx.DB.GetPlayerByDeviceID(deviceID)
	if err != nil {
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
		return
	}

	if player == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.PlayerNotFound)
		return
	}

	w.WriteJSON(http.StatusOK, player, nil, "")
}

var errNameRequired = errors.New("name is required")

// registerPlayer issues a ticket to deviceID and hands it to the optional
// mail and archive integrations.
func registerPlayer(ctx *config.AppContext, w *middlewares.ResponseWriter, deviceID string, opts *models.RegisterPlayerOpts) (*models.Player, error) {
	name := helpers.NormalizeName(opts.Name)
	if name == "" {
		return nil, errNameRequired
	}

	player, err := ctx.DB.InsertPlayer(&models.InsertPlayerOpts{
		Name:     name,
		Email:    strings.TrimSpace(opts.Email),
		DeviceID: deviceID,
		Code:     shortuuid.New(),
		Ticket:   ctx.Generator.Generate(),
	})
	if err != nil {
		return nil, err
	}

	w.LogInfo(log.Fields{"device_id": deviceID, "code": player.Code}, "ticket issued")
	go deliverTicket(ctx, w.Logger, player)

	return player, nil
}

// deliverTicket mails and archives an issued ticket when those integrations
// are configured. Failures are logged only.
func deliverTicket(ctx *config.AppContext, logger *log.Entry, player *models.Player) {
	logger = logger.WithField("code", player.Code)

	if ctx.AwsSMTP != nil && player.Email != "" {
		ed := &helpers.EmailData{
			EmailTo:      player.Email,
			NameTo:       player.Name,
			EmailFrom:    ctx.Config.Mail.EmailFrom,
			NameFrom:     ctx.Config.Mail.NameFrom,
			Subject:      ctx.Config.Mail.Subject,
			TemplateName: "ticket_mail.html",
			AwsSMTP:      ctx.AwsSMTP,
		}
		if pdf, err := helpers.GenerateTicketPDF(ctx.Config.AppName, player); err == nil {
			ed.FileName = ctx.Config.Mail.PDFFileName
			ed.FileContent = pdf.Bytes()
		} else {
			logger.WithError(err).Warn("sending ticket mail without pdf")
		}

		if err := ed.SendEmail(models.PlayerTicketHTML{AppName: ctx.Config.AppName, Player: player}); err != nil {
			logger.WithError(err).Error("failed sending ticket mail")
		} else {
			logger.Info("ticket mail sent")
		}
	}

	if ctx.AwsS3 != nil {
		if err := helpers.ArchiveTicket(ctx.AwsS3, ctx.Config.AwsS3.S3Bucket, ctx.Config.AwsS3.S3PathTicket, player); err != nil {
			logger.WithError(err).Error("failed archiving ticket")
		} else {
			logger.Info("ticket archived")
		}
	}
}

// registerFormError translates the first failed register rule, name before
// email.
func registerFormError(errs map[string][]string, opts *models.RegisterPlayerOpts, lang string) string {
	if len(errs["name"]) > 0 {
		if helpers.NormalizeName(opts.Name) == "" {
			return middlewares.Responses.NameRequired.In(lang)
		}
		return middlewares.Responses.NameTooLong.In(lang)
	}
	if len(errs["email"]) > 0 {
		return middlewares.Responses.InvalidEmail.In(lang)
	}
	return middlewares.Responses.FailedValidations.In(lang)
}
