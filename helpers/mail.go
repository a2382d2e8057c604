package helpers

import (
	"bytes"
	"io"

	"bitbucket.org/parqueoasis/tambola/templates"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type EmailData struct {
	EmailTo      string
	NameTo       string
	EmailFrom    string
	NameFrom     string
	Subject      string
	TemplateName string
	FileName     string
	FileContent  []byte
	AwsSMTP      *gomail.Dialer
}

// BuildMessage renders the mail body and assembles the message.
func (ed *EmailData) BuildMessage(data interface{}) (*gomail.Message, error) {
	var tpl bytes.Buffer
	if err := templates.Documents.ExecuteTemplate(&tpl, ed.TemplateName, data); err != nil {
		return nil, errors.Wrapf(err, "failed executing %s", ed.TemplateName)
	}

	m := gomail.NewMessage()

	if ed.FileContent != nil {
		content := ed.FileContent
		m.Attach(ed.FileName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	m.SetHeader("From", m.FormatAddress(ed.EmailFrom, ed.NameFrom))
	m.SetHeader("To", m.FormatAddress(ed.EmailTo, ed.NameTo))
	m.SetHeader("Subject", ed.Subject)
	m.SetBody("text/html", tpl.String())
	return m, nil
}

func (ed *EmailData) SendEmail(data interface{}) error {
	if ed.AwsSMTP == nil {
		return errors.New("smtp is not configured")
	}

	m, err := ed.BuildMessage(data)
	if err != nil {
		return err
	}

	return ed.AwsSMTP.DialAndSend(m)
}
