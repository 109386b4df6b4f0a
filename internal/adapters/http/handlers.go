package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"importdesk/internal/application/orchestrators"
	"importdesk/internal/domain/importrun"
	logDomain "importdesk/internal/domain/logentry"
	siteDomain "importdesk/internal/domain/site"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const templatesDir = "internal/adapters/http/templates"

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// pageNotice is a transient notification rendered at the top of the page.
type pageNotice struct {
	Level string // success, warn, error
	Text  string
}

// consolePage is the template data for the import console.
type consolePage struct {
	Sites        []siteDomain.Site
	SelectedSite string
	Subject      string
	Recipients   string
	Results      []importrun.Result
	Succeeded    int
	Failed       int
	Logs         []logDomain.Entry
	Notices      []pageNotice
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"statusClass": func(status string) string {
			switch strings.ToLower(status) {
			case "success":
				return "ok"
			case "error":
				return "err"
			default:
				return "info"
			}
		},
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// loadSites fetches the site list through the functions client. A load
// failure becomes a notice; the page stays usable with prior state.
func loadSites(ctx context.Context, page *consolePage) {
	sites, err := backend.ListSites(ctx)
	if err != nil {
		slog.Error("console_sites_load_failed", "err", err)
		page.Notices = append(page.Notices, pageNotice{Level: "error", Text: "Couldn't load sites: " + err.Error()})
		return
	}
	page.Sites = sites
	if page.SelectedSite == "" && len(sites) > 0 {
		page.SelectedSite = sites[0].SiteID
	}
}

// loadLogs fetches the activity log through the functions client.
func loadLogs(ctx context.Context, page *consolePage) {
	logs, err := backend.FetchLogs(ctx)
	if err != nil {
		slog.Error("console_logs_load_failed", "err", err)
		page.Notices = append(page.Notices, pageNotice{Level: "error", Text: "Couldn't load the activity log: " + err.Error()})
		return
	}
	page.Logs = logs
}

// handleConsole renders the import console page (GET /)
func handleConsole(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	page := consolePage{SelectedSite: r.URL.Query().Get("site")}

	// Flash notice carried through a redirect (e.g. after clearing logs)
	if text := r.URL.Query().Get("notice"); text != "" {
		level := r.URL.Query().Get("level")
		if level == "" {
			level = "success"
		}
		page.Notices = append(page.Notices, pageNotice{Level: level, Text: text})
	}

	loadSites(ctx, &page)
	loadLogs(ctx, &page)

	renderTemplate(w, r, "console.html", page)
}

// handleImport runs the bulk import submission loop (POST /import)
func handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	isHTML := isHTMLRequest(r)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.ImportUsersInput{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.TargetSiteID = r.FormValue("TargetSiteID")
		input.CustomSubject = r.FormValue("CustomSubject")
		input.RawRecipients = r.FormValue("Recipients")
	} else {
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	if input.TargetSiteID == "" {
		if isHTML {
			renderImportForm(w, r, input, pageNotice{Level: "warn", Text: "Choose a target site first."})
			return
		}
		http.Error(w, "targetSiteId is required", http.StatusBadRequest)
		return
	}

	deps := orchestrators.ImportUsersDeps{Importer: backend, Logs: backend}
	result, err := orchestrators.ExecuteImportUsers(ctx, input, deps)
	if err == orchestrators.ErrNoRecipients {
		if isHTML {
			renderImportForm(w, r, input, pageNotice{Level: "warn", Text: "No valid email addresses found. Paste one address per line."})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	if !isHTML {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
		return
	}

	page := consolePage{
		SelectedSite: input.TargetSiteID,
		Subject:      input.CustomSubject,
		Results:      result.Results,
		Succeeded:    result.Succeeded,
		Failed:       result.Failed,
		Logs:         result.Logs,
	}
	loadSites(ctx, &page)
	page.SelectedSite = input.TargetSiteID

	level := "success"
	if result.Failed > 0 {
		level = "warn"
	}
	summary := pageNotice{Level: level, Text: importSummary(result)}
	page.Notices = append([]pageNotice{summary}, page.Notices...)
	if result.LogsStale {
		page.Notices = append(page.Notices, pageNotice{Level: "error", Text: "Couldn't refresh the activity log after the run."})
	}

	renderTemplate(w, r, "console.html", page)
}

// renderImportForm re-renders the console keeping the operator's input.
func renderImportForm(w http.ResponseWriter, r *http.Request, input orchestrators.ImportUsersInput, notice pageNotice) {
	ctx := r.Context()
	page := consolePage{
		SelectedSite: input.TargetSiteID,
		Subject:      input.CustomSubject,
		Recipients:   input.RawRecipients,
		Notices:      []pageNotice{notice},
	}
	loadSites(ctx, &page)
	loadLogs(ctx, &page)
	renderTemplate(w, r, "console.html", page)
}

// importSummary builds the one-line run summary for the notice bar.
func importSummary(result orchestrators.ImportUsersResult) string {
	total := result.Succeeded + result.Failed
	if result.Failed == 0 {
		if total == 1 {
			return "Imported 1 address."
		}
		return fmt.Sprintf("Imported %d addresses.", total)
	}
	return fmt.Sprintf("Imported %d of %d addresses; %d failed.", result.Succeeded, total, result.Failed)
}

// handleLogs returns the activity log for the console's refresh action (GET /logs)
func handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	logs, err := backend.FetchLogs(r.Context())
	if err != nil {
		slog.Error("console_logs_load_failed", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []logDomain.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}

// handleLogsClear clears the backend activity log (POST /logs/clear)
func handleLogsClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	err := backend.ClearLogs(r.Context())

	if isHTMLRequest(r) {
		q := url.Values{}
		if err != nil {
			slog.Error("console_clear_logs_failed", "err", err)
			q.Set("notice", "Couldn't clear the log: "+err.Error())
			q.Set("level", "error")
		} else {
			q.Set("notice", "Activity log cleared.")
		}
		http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
		return
	}

	if err != nil {
		slog.Error("console_clear_logs_failed", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
