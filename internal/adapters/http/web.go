package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"importdesk/internal/adapters/email"
	"importdesk/internal/adapters/functions"
	"importdesk/internal/adapters/http/middleware"
	logentryStore "importdesk/internal/adapters/storage/logentry"
	memberStore "importdesk/internal/adapters/storage/member"
	siteStore "importdesk/internal/adapters/storage/site"
)

// Stores holds all storage dependencies.
type Stores struct {
	SiteStore   siteStore.Store
	MemberStore memberStore.Store
	LogStore    logentryStore.Store
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global functions client (set by SetFunctionsClient). The console page
// always goes through this client, even when the functions endpoints are
// served by this same binary.
var backend *functions.Client

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// SetFunctionsClient sets the functions client the console handlers use.
func SetFunctionsClient(c *functions.Client) {
	backend = c
}

// loadCSRFKey reads the CSRF secret from IMPORTDESK_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("IMPORTDESK_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("IMPORTDESK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("IMPORTDESK_ENV") == "production" {
		log.Fatal("IMPORTDESK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set IMPORTDESK_CSRF_KEY for production.")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores) http.Handler {
	stores = s

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP. Only
	// operator-facing console routes are limited: the import loop calls
	// the embedded functions API over loopback, one request per pasted
	// address, and limiting those calls would throttle the console
	// against itself.
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	limited := middleware.RateLimit(limiter)(mux)
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/_functions/") {
			mux.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})

	// Apply middleware: RequestLog -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(root,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.RequestLog,
	)
}
