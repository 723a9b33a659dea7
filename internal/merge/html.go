package merge

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var previewTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"kind": func(b Block) string { return string(b.Kind) },
	}

	content, err := templateFS.ReadFile("templates/preview.html")
	if err != nil {
		previewTemplate = template.Must(template.New("preview").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	previewTemplate = template.Must(template.New("preview").Funcs(funcMap).Parse(string(content)))
}

type htmlData struct {
	Title  string
	Blocks []Block
}

// RenderHTML renders the preview as a standalone HTML page
func RenderHTML(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, htmlData{Title: "Title Scrutiny Report", Blocks: doc.Blocks}); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return buf.String(), nil
}

const fallbackTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{- range .Blocks}}
{{- if eq (kind .) "blank"}}<br>
{{- else if eq (kind .) "heading"}}<h3>{{.Text}}</h3>
{{- else if eq (kind .) "paragraph"}}<p>{{.Text}}</p>
{{- else if eq (kind .) "deed_table"}}
<table border="1"><tr>{{range .Deeds.Headers}}<th>{{.}}</th>{{end}}</tr>
{{- range .Deeds.Rows}}<tr><td>{{.Sno}}</td><td>{{.Date}}</td><td>{{.DocNo}}</td><td>{{.Particulars}}</td><td>{{.Nature}}</td></tr>{{end}}
</table>
{{- else if eq (kind .) "property"}}
<h3>{{.Property.Title}}</h3>
{{- if .Property.Empty}}<p>{{.Property.Empty}}</p>{{end}}
{{- range .Property.Documents}}<p>{{.Heading}}</p>
<table border="1">{{range .Rows}}<tr><td>{{.Numeral}}</td><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}</table>
{{- end}}
{{- end}}
{{- end}}
</body>
</html>`
