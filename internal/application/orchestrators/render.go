package orchestrators

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"dojo/internal/adapters/email"
)

// mdRenderer escapes raw HTML in its input (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts a markdown email body to HTML.
func renderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// markdownEmail builds a send request with both HTML and plain-text parts.
func markdownEmail(to []string, replyTo, subject, md string) (email.SendRequest, error) {
	html, err := renderMarkdown(md)
	if err != nil {
		return email.SendRequest{}, err
	}
	return email.SendRequest{To: to, ReplyTo: replyTo, Subject: subject, HTML: html, Text: md}, nil
}
