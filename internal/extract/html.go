package extract

import (
	"html"
	"regexp"
	"strings"
)

var (
	titleRe   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	firstH1Re = regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	nlRe      = regexp.MustCompile(`\n{3,}`)
)

// Title pulls the <title> from HTML, falling back to the first <h1>.
func Title(htmlContent string) string {
	if m := titleRe.FindStringSubmatch(htmlContent); len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	if m := firstH1Re.FindStringSubmatch(htmlContent); len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	return ""
}

// StripHTML removes script/style/nav/footer blocks, strips tags,
// decodes entities, and collapses whitespace.
func StripHTML(content string) string {
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		content = re.ReplaceAllString(content, "")
	}

	content = tagRe.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)
	content = spaceRe.ReplaceAllString(content, " ")
	content = nlRe.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
