package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	emailPkg "importdesk/internal/adapters/email"
	"importdesk/internal/adapters/functions"
	web "importdesk/internal/adapters/http"
	"importdesk/internal/adapters/storage"
	logentryStore "importdesk/internal/adapters/storage/logentry"
	memberStore "importdesk/internal/adapters/storage/member"
	siteStore "importdesk/internal/adapters/storage/site"
	"importdesk/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("IMPORTDESK_DB", "importdesk.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	stores := &web.Stores{
		SiteStore:   siteStore.NewSQLiteStore(db),
		MemberStore: memberStore.NewSQLiteStore(db),
		LogStore:    logentryStore.NewSQLiteStore(db),
	}

	// Seed the site registry on first start
	seedDeps := orchestrators.SeedSitesDeps{
		SiteStore:  stores.SiteStore,
		GenerateID: func() string { return uuid.New().String() },
	}
	if err := orchestrators.ExecuteSeedSites(context.Background(), seedDeps, os.Getenv("IMPORTDESK_SITES")); err != nil {
		log.Fatalf("failed to seed sites: %v", err)
	}

	// Configure email sender
	resendKey := os.Getenv("IMPORTDESK_RESEND_KEY")
	emailFrom := envOrDefault("IMPORTDESK_RESEND_FROM", "Import Desk <noreply@example.com>")
	emailReply := os.Getenv("IMPORTDESK_REPLY_TO")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom, emailReply)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom, emailReply)
		if os.Getenv("IMPORTDESK_ENV") == "production" {
			log.Println("WARNING: IMPORTDESK_RESEND_KEY is not set — welcome emails are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set IMPORTDESK_RESEND_KEY for real delivery)")
		}
	}

	addr := envOrDefault("IMPORTDESK_ADDR", ":8080")

	// The console talks to the functions API over HTTP even when it is the
	// embedded one, so a remote functions host is a pure config change.
	functionsURL := os.Getenv("IMPORTDESK_FUNCTIONS_URL")
	if functionsURL == "" {
		functionsURL = selfBaseURL(addr) + "/_functions"
		log.Printf("Using embedded functions backend at %s", functionsURL)
	} else {
		log.Printf("Using remote functions backend at %s", functionsURL)
	}
	web.SetFunctionsClient(functions.NewClient(functionsURL, nil))

	mux := web.NewMux("static", stores)

	log.Printf("Import Desk %s starting on %s (env=%s)", version, addr, envOrDefault("IMPORTDESK_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// selfBaseURL turns a listen address into a loopback base URL.
func selfBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
