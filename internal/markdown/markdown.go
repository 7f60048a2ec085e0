// Package markdown escapes text for Telegram's MarkdownV2 parse mode.
package markdown

import "strings"

// Special characters per https://core.telegram.org/bots/api#markdownv2-style.
var escaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// Escape returns input with every MarkdownV2 special character
// backslash-escaped.
func Escape(input string) string {
	return escaper.Replace(input)
}
