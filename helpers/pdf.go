package helpers

import (
	"bytes"
	"strings"

	"bitbucket.org/parqueoasis/tambola/models"
	"bitbucket.org/parqueoasis/tambola/templates"
	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/pkg/errors"
)

// RequestPdf renders one HTML document into a single PDF page.
type RequestPdf struct {
	body string
}

func (r *RequestPdf) ParseTemplate(templateName string, data interface{}) error {
	buf := new(bytes.Buffer)
	if err := templates.Documents.ExecuteTemplate(buf, templateName, data); err != nil {
		return errors.Wrapf(err, "failed executing %s", templateName)
	}
	r.body = buf.String()
	return nil
}

func (r *RequestPdf) GeneratePDF() (*bytes.Buffer, error) {
	if r.body == "" {
		return nil, errors.New("no document to render")
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, errors.Wrap(err, "wkhtmltopdf unavailable")
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(strings.NewReader(r.body)))

	if err := pdfg.Create(); err != nil {
		return nil, errors.Wrap(err, "failed creating pdf")
	}

	return pdfg.Buffer(), nil
}

// GenerateTicketPDF renders a player's ticket as a one page PDF.
func GenerateTicketPDF(appName string, player *models.Player) (*bytes.Buffer, error) {
	r := RequestPdf{}

	printable := *player
	printable.Name = RemoveAccents(player.Name)

	if err := r.ParseTemplate("ticket_pdf.html", models.PlayerTicketHTML{
		AppName: appName,
		Player:  &printable,
	}); err != nil {
		return nil, err
	}

	return r.GeneratePDF()
}
