package section

import (
	"html/template"
	"strings"

	bm "github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"
)

var ugc = bm.UGCPolicy()

const markdownExtensions = bf.EXTENSION_TABLES |
	bf.EXTENSION_FENCED_CODE |
	bf.EXTENSION_AUTOLINK |
	bf.EXTENSION_STRIKETHROUGH |
	bf.EXTENSION_NO_INTRA_EMPHASIS

// renderRichText converts markdown to HTML, or takes author HTML as is, and
// sanitizes the result.
func renderRichText(c RichTextContent) template.HTML {
	var out []byte
	switch {
	case strings.TrimSpace(c.Markdown) != "":
		out = bf.Markdown([]byte(c.Markdown), bf.HtmlRenderer(0, "", ""), markdownExtensions)
	case strings.TrimSpace(c.HTML) != "":
		out = []byte(c.HTML)
	default:
		return ""
	}
	return template.HTML(strings.TrimSpace(string(ugc.SanitizeBytes(out))))
}
