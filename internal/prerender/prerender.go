// Package prerender renders the static homepage at build time and splices
// it into the bundled index.html.
package prerender

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"pulsecart/internal/models"
	"pulsecart/internal/seed"
)

const (
	Title       = "E-Shop | Shop curated electronics"
	Description = "Pre-rendered catalog with localized experience and instant checkout."

	rootPlaceholder = `<div id="root"></div>`
)

var (
	titlePattern       = regexp.MustCompile(`<title>[\s\S]*?</title>`)
	descriptionPattern = regexp.MustCompile(`<meta name="description" content="[\s\S]*?" />`)
)

//go:embed home.html.tmpl
var homeTemplate string

var home = template.Must(template.New("home").Funcs(template.FuncMap{
	"usd": models.FormatUSD,
	"image": func(p models.Product) string {
		if p.ImageURL == nil {
			return ""
		}
		return *p.ImageURL
	},
}).Parse(homeTemplate))

type stat struct {
	Label string
	Value string
}

var stats = []stat{
	{Label: "Products ready to ship", Value: "500+"},
	{Label: "Global destinations", Value: "40+"},
	{Label: "Avg. support rating", Value: "4.9/5"},
}

type Head struct {
	Title       string
	Description string
}

type Result struct {
	HTML string
	Head Head
}

// Render produces the homepage markup for products. It needs no network and no session.
func Render(products []models.Product) (Result, error) {
	var buf bytes.Buffer
	err := home.Execute(&buf, struct {
		Stats    []stat
		Products []models.Product
	}{Stats: stats, Products: products})
	if err != nil {
		return Result{}, fmt.Errorf("render homepage: %w", err)
	}
	return Result{
		HTML: strings.TrimSpace(buf.String()),
		Head: Head{Title: Title, Description: Description},
	}, nil
}

// Apply splices res into page: the content goes inside the empty root
// element, the title is replaced, and the description meta tag is rewritten
// only when the page already has one. Each replacement touches the first match.
func Apply(page string, res Result) string {
	out := strings.Replace(page, rootPlaceholder, `<div id="root">`+res.HTML+`</div>`, 1)

	if res.Head.Title != "" {
		out = replaceFirst(titlePattern, out, "<title>"+html.EscapeString(res.Head.Title)+"</title>")
	}
	if res.Head.Description != "" {
		out = replaceFirst(descriptionPattern, out,
			`<meta name="description" content="`+html.EscapeString(res.Head.Description)+`" />`)
	}
	return out
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// Run rewrites <distDir>/index.html in place with the bundled catalog and
// returns the path it wrote.
func Run(distDir string) (string, error) {
	path := filepath.Join(distDir, "index.html")

	page, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}

	products, err := seed.Products()
	if err != nil {
		return "", err
	}
	res, err := Render(products)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat template: %w", err)
	}
	if err := os.WriteFile(path, []byte(Apply(string(page), res)), info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
