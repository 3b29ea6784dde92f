package site

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

//go:embed template.html
var pageTemplate string

var page = template.Must(template.New("site").Funcs(template.FuncMap{
	// Record HTML is produced by the assembler from classifier output, not
	// user input, so it is inserted as-is.
	"raw": func(s string) template.HTML { return template.HTML(s) },
}).Parse(pageTemplate))

// Render writes the assembled sections as index.html under dir.
func Render(dir string, sections []*Section, today time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create site dir: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create site file: %w", err)
	}
	defer f.Close()
	data := struct {
		Sections []*Section
		Today    string
	}{Sections: sections, Today: today.Format("2006-01-02")}
	if err := page.Execute(f, data); err != nil {
		return fmt.Errorf("render site: %w", err)
	}
	return nil
}
