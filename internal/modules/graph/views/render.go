package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var graphTmpl *template.Template

// loadTemplatesFromFS parses the graph templates under dir in fsys. Tests use
// it to simulate broken template sets.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	graphTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded templates. Call it during startup; if it
// fails, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Row is one line of the readings table under the chart.
type Row struct {
	Label string
	Value string
}

// GraphData is the view model for the graph page and its chart partial.
type GraphData struct {
	Title   string
	State   string
	Message string
	Loading bool
	// HasToken hides the token prompt once the session carries one.
	HasToken  bool
	ChartSVG  template.HTML
	Rows      []Row
	UpdatedAt string
}

func (d *GraphData) Empty() bool {
	return len(d.Rows) == 0
}

func RenderGraph(w io.Writer, data *GraphData) error {
	if graphTmpl == nil {
		return errors.New("graph template not loaded: call views.LoadTemplates during startup")
	}
	return graphTmpl.ExecuteTemplate(w, "graph.html", data)
}

// RenderChartPartial executes only the chart partial, for HTMX refreshes.
func RenderChartPartial(w io.Writer, data *GraphData) error {
	if graphTmpl == nil {
		return errors.New("graph template not loaded: call views.LoadTemplates during startup")
	}
	return graphTmpl.ExecuteTemplate(w, "partials/chart.html", data)
}
