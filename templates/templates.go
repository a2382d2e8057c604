// Package templates holds the embedded HTML for pages, mails and PDFs.
package templates

import (
	"embed"
	"html/template"
	"strconv"
	"time"

	"bitbucket.org/parqueoasis/tambola/tambola"
)

//go:embed pages/*.html documents/*.html
var files embed.FS

var funcs = template.FuncMap{
	"cell": func(n int) string {
		if n == tambola.Blank {
			return ""
		}
		return strconv.Itoa(n)
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"add": func(a, b int) int {
		return a + b
	},
}

var (
	// Pages are served to browsers.
	Pages = template.Must(template.New("pages").Funcs(funcs).ParseFS(files, "pages/*.html"))

	// Documents are rendered for mail bodies and PDF export.
	Documents = template.Must(template.New("documents").Funcs(funcs).ParseFS(files, "documents/*.html", "pages/partials.html"))
)
