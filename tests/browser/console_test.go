package browser_test

import (
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

func TestConsole_LoadsSitesAndEmptyLog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	options := page.Locator("#site-select option")
	count, err := options.Count()
	if err != nil {
		t.Fatalf("count site options: %v", err)
	}
	if count != 2 {
		t.Errorf("site options = %d, want 2", count)
	}
	first, err := options.First().InnerText()
	if err != nil {
		t.Fatalf("read first option: %v", err)
	}
	if strings.TrimSpace(first) != "Demo Site" {
		t.Errorf("first option = %q, want Demo Site", first)
	}

	empty := page.Locator("#log-empty")
	if err := empty.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("empty-log placeholder not visible: %v", err)
	}

	disabled, err := page.Locator("#import-btn").IsDisabled()
	if err != nil {
		t.Fatalf("check import button: %v", err)
	}
	if disabled {
		t.Error("import button should be enabled when sites exist")
	}
}

func TestConsole_ImportMixedInputShowsOrderedResults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	app.runImport(t, page, "Demo Site", "a@x.com\n\nbad\nb@x.com")

	table := page.Locator("#results-table")
	if err := table.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("results table not visible: %v", err)
	}

	rows := page.Locator("#results-table tbody tr")
	count, err := rows.Count()
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("result rows = %d, want 2 (blank and bad lines are skipped)", count)
	}

	firstEmail, err := rows.Nth(0).Locator("td").First().InnerText()
	if err != nil {
		t.Fatalf("read row 0: %v", err)
	}
	secondEmail, err := rows.Nth(1).Locator("td").First().InnerText()
	if err != nil {
		t.Fatalf("read row 1: %v", err)
	}
	if strings.TrimSpace(firstEmail) != "a@x.com" || strings.TrimSpace(secondEmail) != "b@x.com" {
		t.Errorf("row order = %q, %q; want a@x.com then b@x.com", firstEmail, secondEmail)
	}

	heading, err := page.Locator("#results-heading").InnerText()
	if err != nil {
		t.Fatalf("read results heading: %v", err)
	}
	if !strings.Contains(heading, "2 ok, 0 failed") {
		t.Errorf("results heading = %q", heading)
	}

	// The activity log refreshes after the run.
	logRows := page.Locator("#log-panel table tbody tr")
	logCount, err := logRows.Count()
	if err != nil {
		t.Fatalf("count log rows: %v", err)
	}
	if logCount == 0 {
		t.Error("activity log should show entries after an import run")
	}
}

func TestConsole_DuplicateRowShowsFriendlyMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	app.runImport(t, page, "Demo Site", "a@x.com")
	if err := page.Locator("#results-table").WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("first run results not visible: %v", err)
	}

	app.runImport(t, page, "Demo Site", "a@x.com\nb@x.com")
	if err := page.Locator("#results-table").WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("second run results not visible: %v", err)
	}

	rows := page.Locator("#results-table tbody tr")
	firstMessage, err := rows.Nth(0).Locator("td").Nth(2).InnerText()
	if err != nil {
		t.Fatalf("read row 0 message: %v", err)
	}
	if strings.TrimSpace(firstMessage) != "Member already exists on this site." {
		t.Errorf("duplicate message = %q", firstMessage)
	}

	secondStatus, err := rows.Nth(1).Locator("td").Nth(1).InnerText()
	if err != nil {
		t.Fatalf("read row 1 status: %v", err)
	}
	if !strings.Contains(strings.ToLower(secondStatus), "success") {
		t.Errorf("row 1 status = %q, want success (run continues past failures)", secondStatus)
	}

	heading, err := page.Locator("#results-heading").InnerText()
	if err != nil {
		t.Fatalf("read results heading: %v", err)
	}
	if !strings.Contains(heading, "1 ok, 1 failed") {
		t.Errorf("results heading = %q", heading)
	}
}

func TestConsole_NoValidEmailsKeepsInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	app.runImport(t, page, "Demo Site", "junk\nmore junk")

	notice := page.Locator(".notice")
	if err := notice.First().WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("warning notice not visible: %v", err)
	}
	text, err := notice.First().InnerText()
	if err != nil {
		t.Fatalf("read notice: %v", err)
	}
	if !strings.Contains(text, "No valid email addresses") {
		t.Errorf("notice = %q", text)
	}

	// The operator's input survives the round trip.
	value, err := page.Locator("#recipients").InputValue()
	if err != nil {
		t.Fatalf("read recipients: %v", err)
	}
	if !strings.Contains(value, "junk") {
		t.Errorf("recipients input not preserved: %q", value)
	}

	// Nothing reached the backend.
	empty := page.Locator("#log-empty")
	if err := empty.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("log should still be empty: %v", err)
	}
}

func TestConsole_ClearLogs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	app.runImport(t, page, "Demo Site", "a@x.com")
	if err := page.Locator("#results-table").WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("results not visible: %v", err)
	}

	if err := page.Locator("#clear-logs-btn").Click(); err != nil {
		t.Fatalf("click clear logs: %v", err)
	}

	// The clear redirects back to the console with a flash notice.
	notice := page.Locator(".notice")
	if err := notice.First().WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("clear notice not visible: %v", err)
	}
	text, err := notice.First().InnerText()
	if err != nil {
		t.Fatalf("read notice: %v", err)
	}
	if !strings.Contains(text, "Activity log cleared") {
		t.Errorf("notice = %q", text)
	}

	empty := page.Locator("#log-empty")
	if err := empty.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("log not empty after clear: %v", err)
	}
}
