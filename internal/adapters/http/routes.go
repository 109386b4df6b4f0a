package web

import "net/http"

// registerRoutes wires the console pages and the embedded functions API.
func registerRoutes(mux *http.ServeMux) {
	// Console pages
	mux.HandleFunc("/", handleConsole)
	mux.HandleFunc("/import", handleImport)
	mux.HandleFunc("/logs", handleLogs)
	mux.HandleFunc("/logs/clear", handleLogsClear)

	// Functions API (same wire contract as a remote functions host)
	mux.HandleFunc("/_functions/listSites", handleFunctionsListSites)
	mux.HandleFunc("/_functions/logs", handleFunctionsLogs)
	mux.HandleFunc("/_functions/clearLogs", handleFunctionsClearLogs)
	mux.HandleFunc("/_functions/importUsers", handleFunctionsImportUsers)
}
