package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	emailAdapter "importdesk/internal/adapters/email"
	"importdesk/internal/adapters/functions"
	web "importdesk/internal/adapters/http"
	"importdesk/internal/adapters/http/middleware"
	"importdesk/internal/adapters/storage"
	logentryStore "importdesk/internal/adapters/storage/logentry"
	memberStore "importdesk/internal/adapters/storage/member"
	siteStore "importdesk/internal/adapters/storage/site"
	siteDomain "importdesk/internal/domain/site"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	tmpDir  string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
// The console's functions client is pointed at the embedded functions endpoints.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Create temp directory for the database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init test DB: %v", err)
	}

	stores := &web.Stores{
		SiteStore:   siteStore.NewSQLiteStore(db),
		MemberStore: memberStore.NewSQLiteStore(db),
		LogStore:    logentryStore.NewSQLiteStore(db),
	}

	// Seed the managed site registry
	ctx := context.Background()
	for _, site := range []siteDomain.Site{
		{ID: "s1", SiteName: "Demo Site", SiteID: "demo"},
		{ID: "s2", SiteName: "Staging Site", SiteID: "staging"},
	} {
		if err := stores.SiteStore.Save(ctx, site); err != nil {
			t.Fatalf("failed to seed site: %v", err)
		}
	}

	web.SetEmailSender(emailAdapter.NewNoopSender(), "Import Desk <noreply@test.local>", "")
	web.RateLimitPerSecond = 1000

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so relative template/static paths work
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	// Start HTTP server
	mux := web.NewMux("static", stores)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	web.SetFunctionsClient(functions.NewClient(baseURL+"/_functions", nil))

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/_functions/listSites")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Start Playwright
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		tmpDir:  tmpDir,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// runImport fills the console form and submits it.
func (a *testApp) runImport(t *testing.T, page playwright.Page, siteLabel, recipients string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/"); err != nil {
		t.Fatalf("navigate to console: %v", err)
	}
	if siteLabel != "" {
		if _, err := page.Locator("#site-select").SelectOption(playwright.SelectOptionValues{
			Labels: &[]string{siteLabel},
		}); err != nil {
			t.Fatalf("select site: %v", err)
		}
	}
	if err := page.Locator("#recipients").Fill(recipients); err != nil {
		t.Fatalf("fill recipients: %v", err)
	}
	if err := page.Locator("#import-btn").Click(); err != nil {
		t.Fatalf("click import: %v", err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
