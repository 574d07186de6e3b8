package render

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/a-h/templ"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/core"
)

// TemplateData is the value a user template is executed with.
type TemplateData struct {
	Contexts     []core.Context
	CreationDate string
}

// Funcs are available to user templates:
//
//	escape  XML/HTML-escapes a string
//	value   the string of a nullable value, "" when null
//	valid   whether a nullable value is set
//	join    strings.Join
var Funcs = template.FuncMap{
	"escape": templ.EscapeString,
	"value": func(t pgtype.Text) string {
		if !t.Valid {
			return ""
		}
		return t.String
	},
	"valid": func(t pgtype.Text) bool { return t.Valid },
	"join":  strings.Join,
}

// LoadTemplate parses the template file at path with Funcs available.
func LoadTemplate(path string) (*template.Template, error) {
	t, err := template.New(filepath.Base(path)).Funcs(Funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Template renders contexts through a user template.
func Template(t *template.Template, created time.Time, contexts []core.Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		data := TemplateData{
			Contexts:     contexts,
			CreationDate: created.UTC().Format(core.EventTimeLayout),
		}
		if err := t.Execute(w, data); err != nil {
			return fmt.Errorf("execute template %s: %w", t.Name(), err)
		}
		return nil
	})
}
