package web

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"importdesk/internal/adapters/email"
	logDomain "importdesk/internal/domain/logentry"
	memberDomain "importdesk/internal/domain/member"
	siteDomain "importdesk/internal/domain/site"
)

// logListLimit caps how many entries a single logs fetch returns.
const logListLimit = 500

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// functionsError writes the error envelope the functions API uses:
// {message, details:{details:{applicationError:{code}}}}. An empty code
// omits the applicationError detail.
func functionsError(w http.ResponseWriter, status int, message, code string) {
	body := map[string]any{"message": message}
	if code != "" {
		body["details"] = map[string]any{
			"details": map[string]any{
				"applicationError": map[string]any{"code": code},
			},
		}
	}
	writeJSON(w, status, body)
}

// writeLog appends an entry to the activity log. Log write failures are
// never surfaced to the caller; the import itself already succeeded or
// failed on its own terms.
func writeLog(ctx context.Context, status, message, logContext string) {
	entry := logDomain.Entry{
		ID:          generateID(),
		CreatedDate: timeNow(),
		Status:      status,
		Message:     message,
		Context:     logContext,
	}
	if err := stores.LogStore.Save(ctx, entry); err != nil {
		slog.Error("log_write_failed", "err", err, "message", message)
	}
}

// handleFunctionsListSites returns the site registry (GET /_functions/listSites)
func handleFunctionsListSites(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sites, err := stores.SiteStore.List(r.Context())
	if err != nil {
		slog.Error("list_sites_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list sites"})
		return
	}
	if sites == nil {
		sites = []siteDomain.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

// handleFunctionsLogs returns the activity log, newest first (GET /_functions/logs)
func handleFunctionsLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entries, err := stores.LogStore.List(r.Context(), logListLimit)
	if err != nil {
		slog.Error("list_logs_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list logs"})
		return
	}
	if entries == nil {
		entries = []logDomain.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleFunctionsClearLogs deletes all activity log entries (POST /_functions/clearLogs)
func handleFunctionsClearLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := stores.LogStore.Clear(r.Context()); err != nil {
		slog.Error("clear_logs_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear logs"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importUsersRequest is the body of an importUsers call.
type importUsersRequest struct {
	TargetSiteID  string `json:"targetSiteId"`
	Email         string `json:"email"`
	CustomSubject string `json:"customSubject"`
}

// handleFunctionsImportUsers creates one member on a site and sends the
// welcome email (POST /_functions/importUsers). Responds 409 with
// application error code ALREADY_EXISTS for a duplicate (site, email).
func handleFunctionsImportUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req importUsersRequest
	if err := strictDecode(r, &req); err != nil {
		functionsError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.TargetSiteID == "" {
		functionsError(w, http.StatusBadRequest, "targetSiteId is required", "")
		return
	}
	if !strings.Contains(req.Email, "@") {
		functionsError(w, http.StatusBadRequest, "a valid email address is required", "")
		return
	}

	target, err := stores.SiteStore.GetBySiteID(ctx, req.TargetSiteID)
	if err != nil {
		functionsError(w, http.StatusNotFound, "unknown target site: "+req.TargetSiteID, "")
		return
	}

	logContext := fmt.Sprintf("site=%s email=%s", target.SiteID, strings.ToLower(req.Email))
	writeLog(ctx, logDomain.StatusInfo, "Import requested for "+req.Email, logContext)

	// Existing member on this site: report, don't touch. Only a
	// not-found lookup may proceed to the create path.
	_, lookupErr := stores.MemberStore.GetByEmail(ctx, target.SiteID, req.Email)
	switch {
	case lookupErr == nil:
		writeLog(ctx, logDomain.StatusError, "Import rejected: "+req.Email+" already exists", logContext)
		functionsError(w, http.StatusConflict, "member already exists", "ALREADY_EXISTS")
		return
	case !errors.Is(lookupErr, sql.ErrNoRows):
		slog.Error("import_member_lookup_failed", "email", req.Email, "site", target.SiteID, "err", lookupErr)
		writeLog(ctx, logDomain.StatusError, "Import failed for "+req.Email+": could not check existing members", logContext)
		functionsError(w, http.StatusInternalServerError, "failed to check existing members", "")
		return
	}

	hash, err := initialPasswordHash()
	if err != nil {
		internalError(w, err)
		return
	}

	m := memberDomain.Member{
		ID:           generateID(),
		SiteID:       target.SiteID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Status:       memberDomain.StatusPending,
		CreatedAt:    timeNow(),
	}
	if err := stores.MemberStore.Save(ctx, m); err != nil {
		slog.Error("import_member_save_failed", "email", m.Email, "site", m.SiteID, "err", err)
		writeLog(ctx, logDomain.StatusError, "Import failed for "+req.Email+": could not save member", logContext)
		functionsError(w, http.StatusInternalServerError, "failed to create member", "")
		return
	}

	subject := strings.TrimSpace(req.CustomSubject)
	if subject == "" {
		subject = email.DefaultWelcomeSubject
	}
	body, err := email.WelcomeBody(target.SiteName, m.Email)
	if err != nil {
		internalError(w, err)
		return
	}

	// The member stays even when delivery fails; the operator sees the
	// error row and can re-send later.
	_, sendErr := emailSender.Send(ctx, email.SendRequest{
		To:      []string{m.Email},
		From:    emailFromAddress,
		Subject: subject,
		HTML:    body,
		ReplyTo: emailReplyTo,
	})
	if sendErr != nil {
		writeLog(ctx, logDomain.StatusError, "Welcome email failed for "+req.Email+": "+sendErr.Error(), logContext)
		functionsError(w, http.StatusBadGateway, "member created but welcome email failed: "+sendErr.Error(), "")
		return
	}

	writeLog(ctx, logDomain.StatusSuccess, "Imported "+req.Email+" into "+target.SiteName, logContext)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Member imported and welcome email sent.",
		"memberId": m.ID,
		"email":    m.Email,
	})
}

// initialPasswordHash generates a random throwaway password and returns
// its bcrypt hash. The cleartext is never stored or sent anywhere; the
// member sets a real password through the welcome email flow.
func initialPasswordHash() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate initial password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(buf)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash initial password: %w", err)
	}
	return string(hash), nil
}
