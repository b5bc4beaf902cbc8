package gtfs_web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("root").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

func (renderer *Renderer) Render(writer io.Writer, name string, data any) error {
	return renderer.tmpl.ExecuteTemplate(writer, name, data)
}

// RenderBytes renders into memory so a failed template never leaves a
// half-written response.
func (renderer *Renderer) RenderBytes(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
