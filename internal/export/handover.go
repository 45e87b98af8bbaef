package export

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/sanitize"
	webembed "github.com/erazemk/oprema/web"
)

// handoverBlankRows is the number of empty rows in the record table.
const handoverBlankRows = 5

// Handover names the people on a handover document.
type Handover struct {
	Company    string
	Authorized string
	Witness    string
	Date       time.Time
}

// handoverData holds pre-escaped values. Each field went through escaped, so
// the template inserts it as is.
type handoverData struct {
	Company      template.HTML
	Date         template.HTML
	AssetName    template.HTML
	SerialNumber template.HTML
	Assignee     template.HTML
	Authorized   template.HTML
	Witness      template.HTML
	BlankRows    []struct{}
}

var (
	handoverOnce sync.Once
	handoverTmpl *template.Template
	handoverErr  error
)

func handoverTemplate() (*template.Template, error) {
	handoverOnce.Do(func() {
		handoverTmpl, handoverErr = template.ParseFS(webembed.TemplatesFS(), "handover.html")
	})
	return handoverTmpl, handoverErr
}

// escaped decodes the entities sanitize.String left in stored fields, then
// applies the strict escape once.
func escaped(s string) template.HTML {
	return template.HTML(sanitize.HTML(html.UnescapeString(s)))
}

// WriteHandover renders the printable handover document for a held asset.
func WriteHandover(w io.Writer, a *model.Asset, h Handover) error {
	if a.AssignedTo == "" {
		return fmt.Errorf("asset %s has no holder", a.ID)
	}
	tmpl, err := handoverTemplate()
	if err != nil {
		return fmt.Errorf("loading handover template: %w", err)
	}
	if h.Date.IsZero() {
		h.Date = time.Now()
	}

	data := handoverData{
		Company:      escaped(h.Company),
		Date:         escaped(h.Date.Format("02/01/2006")),
		AssetName:    escaped(a.Name),
		SerialNumber: escaped(a.SerialNumber),
		Assignee:     escaped(a.AssignedTo),
		Authorized:   escaped(h.Authorized),
		Witness:      escaped(h.Witness),
		BlankRows:    make([]struct{}, handoverBlankRows),
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering handover: %w", err)
	}
	return nil
}
