// Package pages holds the handful of server-rendered pages. The real
// storefront is a separate SPA; these exist for the bare origin and for
// error responses on non-API paths.
package pages

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body{margin:0;font-family:system-ui,sans-serif;background:#0b0b12;color:#e8e8f0;
display:flex;min-height:100vh;align-items:center;justify-content:center}
main{text-align:center;padding:2rem}
h1{font-size:2rem;margin-bottom:.5rem}
p{color:#a0a0b8}
a{color:#8b5cf6}
</style>
</head>
<body>
<main>
%s
</main>
</body>
</html>`

// Landing is the minimal page served at the bare origin.
func Landing(spaOrigin string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := fmt.Sprintf(
			`<h1>Warning Bypass</h1>
<p>This is the API origin. The storefront lives at <a href="%s">%s</a>.</p>`,
			html.EscapeString(spaOrigin), html.EscapeString(spaOrigin),
		)
		_, err := io.WriteString(w, fmt.Sprintf(pageShell, "Warning Bypass", body))
		return err
	})
}

// ErrorPage renders an error for non-API paths.
func ErrorPage(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := fmt.Sprintf(
			`<h1>%d</h1>
<p>%s</p>
<p><a href="/">Back to start</a></p>`,
			status, html.EscapeString(message),
		)
		_, err := io.WriteString(w, fmt.Sprintf(pageShell, fmt.Sprintf("%d - Warning Bypass", status), body))
		return err
	})
}
