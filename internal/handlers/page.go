package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/service"
)

// neutralStripe tints entries that have not been analyzed yet.
const neutralStripe = "#808080"

// EntryPageHandler serves a journal entry as a rendered HTML page.
type EntryPageHandler struct {
	journal  service.JournalService
	parser   goldmark.Markdown
	template *template.Template
}

// entryPageData holds template data for rendered entry pages.
type entryPageData struct {
	Title       string
	Date        string
	Stripe      string
	Status      string
	Content     template.HTML
	Attachments []service.AttachmentView
}

// NewEntryPageHandler creates a new handler for entry pages.
func NewEntryPageHandler(journal service.JournalService) *EntryPageHandler {
	tmpl := template.Must(template.New("entry").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 760px;
      line-height: 1.7;
      background: #fbfaf7;
      color: #1f2933;
    }
    header {
      border-left: 8px solid {{.Stripe}};
      padding-left: 1rem;
      margin-bottom: 2rem;
    }
    h1 {
      margin: 0;
      font-size: 1.8rem;
    }
    .meta {
      color: #6b7280;
      font-size: 0.9rem;
    }
    blockquote {
      border-left: 3px solid #d1d5db;
      margin-left: 0;
      padding-left: 1rem;
      color: #4b5563;
    }
    ul.attachments {
      padding-left: 1.2rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Date}} &middot; {{.Status}}</p>
  </header>
  <article>{{.Content}}</article>
  {{if .Attachments}}
  <h2>Attachments</h2>
  <ul class="attachments">
    {{range .Attachments}}
    <li>{{if .Src}}<a href="{{.Src}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}{{if .Caption}} &middot; {{.Caption}}{{end}}</li>
    {{end}}
  </ul>
  {{end}}
</body>
</html>`))

	return &EntryPageHandler{
		journal: journal,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders GET /entries/{id}. Raw HTML in the entry body is not
// passed through.
func (h *EntryPageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, err := entryID(r)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}

	detail, err := h.journal.GetEntry(ctx, contextutil.UserIDFromContext(ctx), id)
	if err != nil {
		status := service.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "failed to load entry", "entry_id", id, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	content, err := h.renderMarkdown([]byte(detail.Text))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "entry_id", id, "error", err)
		http.Error(w, "failed to render entry", http.StatusInternalServerError)
		return
	}

	data := entryPageData{
		Title:       pageTitle(detail),
		Date:        detail.Date.Format("Monday, 2 January 2006"),
		Stripe:      neutralStripe,
		Status:      string(detail.Status),
		Content:     template.HTML(content),
		Attachments: detail.Attachments,
	}
	if detail.Color != nil {
		data.Stripe = detail.Color.Hex
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, data); err != nil {
		logger.ErrorContext(ctx, "failed to execute entry template", "entry_id", id, "error", err)
		http.Error(w, "failed to render entry", http.StatusInternalServerError)
		return
	}
}

func (h *EntryPageHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func pageTitle(detail *service.EntryDetail) string {
	if detail.Title != nil {
		return *detail.Title
	}
	return detail.Date.Format("2 January 2006")
}
