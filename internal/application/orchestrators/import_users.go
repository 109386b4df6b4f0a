package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"importdesk/internal/adapters/functions"
	"importdesk/internal/domain/importrun"
	logDomain "importdesk/internal/domain/logentry"
)

// ErrNoRecipients is returned when the pasted input contains no usable
// email addresses. No backend call is made in that case.
var ErrNoRecipients = errors.New("no valid email addresses to import")

// UserImporter is the slice of the functions client the import loop needs.
type UserImporter interface {
	ImportUser(ctx context.Context, req functions.ImportRequest) (functions.ImportOutcome, error)
}

// LogFetcher fetches the backend activity log.
type LogFetcher interface {
	FetchLogs(ctx context.Context) ([]logDomain.Entry, error)
}

// ImportUsersInput carries the operator's form input for one import run.
// PRE: TargetSiteID is non-empty; RawRecipients is the textarea contents.
// POST: Returns one result per submitted address; partial success is the
// expected terminal state.
// INVARIANT: Requests are issued strictly sequentially, in input order.
type ImportUsersInput struct {
	TargetSiteID  string
	CustomSubject string
	RawRecipients string
}

// ImportUsersDeps holds external dependencies for the import loop.
type ImportUsersDeps struct {
	Importer UserImporter
	Logs     LogFetcher
}

// ImportUsersResult holds per-address outcomes and the refreshed log.
type ImportUsersResult struct {
	Results   []importrun.Result
	Succeeded int
	Failed    int
	Logs      []logDomain.Entry
	LogsStale bool // set when the post-run log refresh failed
}

// ParseRecipients extracts email addresses from pasted free text: split
// on newlines, trim each line, keep lines containing "@". Anything more
// thorough is deliberately left to the backend.
// PRE: none
// POST: Returned addresses preserve input order; blank/invalid lines dropped
func ParseRecipients(text string) []string {
	var recipients []string
	for _, line := range strings.Split(text, "\n") {
		addr := strings.TrimSpace(line)
		if strings.Contains(addr, "@") {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// ExecuteImportUsers submits each pasted address to the import backend,
// one request at a time, recording one result per address. Individual
// failures do not stop the run. After the loop the activity log is
// re-fetched so the operator sees what the backend did.
// PRE: Input.TargetSiteID is non-empty
// POST: len(Results) equals the number of parsed addresses, in order;
//
//	returns ErrNoRecipients without any backend call when none parse.
//
// INVARIANT: One request in flight at a time; no retry, no rollback.
func ExecuteImportUsers(ctx context.Context, input ImportUsersInput, deps ImportUsersDeps) (ImportUsersResult, error) {
	recipients := ParseRecipients(input.RawRecipients)
	if len(recipients) == 0 {
		return ImportUsersResult{}, ErrNoRecipients
	}

	result := ImportUsersResult{Results: make([]importrun.Result, 0, len(recipients))}

	for _, addr := range recipients {
		outcome, err := deps.Importer.ImportUser(ctx, functions.ImportRequest{
			TargetSiteID:  input.TargetSiteID,
			Email:         addr,
			CustomSubject: input.CustomSubject,
		})
		if err != nil {
			var impErr *functions.ImportError
			raw := ""
			if errors.As(err, &impErr) {
				raw = impErr.Raw
			}
			result.Results = append(result.Results, importrun.Result{
				Email:    addr,
				Status:   importrun.StatusError,
				Message:  err.Error(),
				Response: raw,
			})
			result.Failed++
			slog.Warn("import_user_failed", "email", addr, "site", input.TargetSiteID, "err", err)
			continue
		}

		message := outcome.Message
		if message == "" {
			message = "Imported."
		}
		result.Results = append(result.Results, importrun.Result{
			Email:    addr,
			Status:   importrun.StatusSuccess,
			Message:  message,
			Response: outcome.Raw,
		})
		result.Succeeded++
	}

	logs, err := deps.Logs.FetchLogs(ctx)
	if err != nil {
		slog.Error("import_logs_refresh_failed", "err", err)
		result.LogsStale = true
	} else {
		result.Logs = logs
	}

	slog.Info("import_run",
		"site", input.TargetSiteID,
		"total", len(recipients),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	return result, nil
}
