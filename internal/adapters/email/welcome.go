package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// DefaultWelcomeSubject is used when the operator does not supply a custom subject.
const DefaultWelcomeSubject = "Welcome! Your account is ready"

// welcomeRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var welcomeRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// welcomeMarkdown is the welcome email body. Site name and member email
// are injected as markdown text, so the renderer escapes anything unsafe.
const welcomeMarkdown = `# Welcome to %s

An account has been created for **%s**.

To get started, open the site and sign in with this email address using
the *Forgot password* link to set your own password.

If you did not expect this invitation you can ignore this email.
`

// WelcomeBody renders the welcome-email HTML for a new member.
// PRE: siteName and memberEmail are non-empty
// POST: Returns rendered HTML with markdown metacharacters escaped
func WelcomeBody(siteName, memberEmail string) (string, error) {
	md := fmt.Sprintf(welcomeMarkdown,
		template.HTMLEscapeString(siteName),
		template.HTMLEscapeString(memberEmail))
	var buf bytes.Buffer
	if err := welcomeRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render welcome email: %w", err)
	}
	return buf.String(), nil
}
