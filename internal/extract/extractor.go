// Package extract pulls candidate contact records out of raw page text
// using pattern heuristics. Extraction is best-effort: empty input
// yields an empty result, never an error.
package extract

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/prospector/internal/emailcheck"
	"github.com/sells-group/prospector/internal/model"
)

// Confidence bands per extraction path. The rest of the pipeline uses
// these only as an ordering signal, not as probabilities.
const (
	textConfidenceMin = 70
	textConfidenceMax = 95
	emailConfidence   = 60
	slugConfidenceMin = 70
	slugConfidenceMax = 75
)

// seniorTitles is the fixed vocabulary recognized in free text.
// Longer titles come first so e.g. "Vice President" wins over "VP".
const titleAlternatives = `Vice President|President|Founder|Director|Manager|CEO|CTO|CFO|COO|Lead|VP`

var (
	emailScanRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// "<Title> <Name>" and "<Name> <Title>", symmetric.
	titleNameRe = regexp.MustCompile(`(?:` + titleAlternatives + `)\s*[:,\-]?\s+([A-Z][a-z]+ [A-Z][a-z]+)`)
	nameTitleRe = regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+)\s*[:,\-]?\s*(` + titleAlternatives + `)`)
	titleOnlyRe = regexp.MustCompile(`(?i)\b(` + titleAlternatives + `)\b`)

	// "<Cap> Inc|Corp|LLC|Company" company shapes in free text.
	companyTextRe = regexp.MustCompile(`([A-Z][A-Za-z0-9&]+)\s+(Inc|Corp|LLC|Ltd|Company|Group|Solutions|Systems|Technologies|Labs)\b`)

	slugSplitRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// nonPersonalLocals are local parts that never identify a person.
var nonPersonalLocals = map[string]bool{
	"info": true, "support": true, "contact": true, "noreply": true,
	"no-reply": true, "sales": true, "hello": true, "admin": true,
}

// placeholderDomains never yield usable addresses.
var placeholderDomains = map[string]bool{
	"example.com": true, "test.com": true, "email.com": true,
	"domain.com": true, "yoursite.com": true, "sentry.io": true,
}

// Context carries per-source defaults for extraction. Values are used
// only to fill gaps, never as ground truth about the page.
type Context struct {
	URL      string
	Domain   string
	Company  string
	Industry string
	Location string
}

var titleCaser = cases.Title(language.English)

// Extractor produces candidate contacts from raw source text. The
// email checker is injected so every strategy shares one MX cache.
type Extractor struct {
	checker *emailcheck.Checker
	randInt func(n int) int
}

// New creates an Extractor.
func New(checker *emailcheck.Checker) *Extractor {
	return &Extractor{
		checker: checker,
		randInt: rand.IntN,
	}
}

// WithRand sets the confidence randomizer (for testing).
func (e *Extractor) WithRand(randInt func(n int) int) *Extractor {
	e.randInt = randInt
	return e
}

// Extract scans source text for contacts. Names found with a senior
// title become one candidate each (first match wins per distinct name);
// leftover personal emails become lower-confidence email-only records.
func (e *Extractor) Extract(text string, ctx Context) []model.Contact {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	emails := e.scanEmails(text)
	people := scanPeople(text)
	company := e.resolveCompany(text, ctx)

	var contacts []model.Contact
	usedEmails := make(map[string]bool)

	for _, p := range people {
		first, last := splitName(p.name)
		c := e.newContact(first, last, p.position, company, ctx)
		c.Confidence = textConfidenceMin + e.randInt(textConfidenceMax-textConfidenceMin+1)

		// Prefer an observed address containing a name fragment.
		if observed := matchEmail(emails, first, last); observed != "" {
			c.Email = observed
			usedEmails[observed] = true
		} else {
			e.fillGuessedEmail(&c, company, ctx)
		}

		contacts = append(contacts, c)
	}

	// Remaining personal emails become contacts of their own.
	for _, email := range emails {
		if usedEmails[email] {
			continue
		}
		first, last := nameFromLocalPart(email)
		c := e.newContact(first, last, "Professional", company, ctx)
		c.Email = email
		c.Confidence = emailConfidence
		contacts = append(contacts, c)
	}

	return contacts
}

// FromProfileURL derives a contact from a profile-style URL slug plus
// any snippet text. This is the lowest-confidence extraction path and
// returns nil when the slug is unusable.
func (e *Extractor) FromProfileURL(profileURL, snippet string, ctx Context) *model.Contact {
	slug := profileSlug(profileURL)
	if len(slug) < 3 {
		return nil
	}

	var parts []string
	for _, p := range slugSplitRe.Split(slug, -1) {
		if len(p) > 1 && !isNumeric(p) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	first := titleCaser.String(strings.ToLower(parts[0]))
	last := "Doe"
	if len(parts) > 1 {
		last = titleCaser.String(strings.ToLower(parts[1]))
	}

	position := positionFromText(snippet)
	company := companyFromText(snippet, nil)
	if company == "" {
		company = ctx.Company
	}

	c := e.newContact(first, last, position, company, ctx)
	c.LinkedInURL = strings.SplitN(strings.SplitN(profileURL, "?", 2)[0], "#", 2)[0]
	c.Confidence = slugConfidenceMin + e.randInt(slugConfidenceMax-slugConfidenceMin+1)
	e.fillGuessedEmail(&c, company, ctx)

	return &c
}

func (e *Extractor) newContact(first, last, position, company string, ctx Context) model.Contact {
	if company == "" {
		company = companyFromDomain(ctx.Domain)
	}
	if position == "" {
		position = "Professional"
	}
	return model.Contact{
		ID:        uuid.New().String(),
		FirstName: orDefault(first, "John"),
		LastName:  orDefault(last, "Doe"),
		Company:   orDefault(company, "Unknown Company"),
		Position:  position,
		Industry:  orDefault(ctx.Industry, "Business"),
		Location:  ctx.Location,
		Website:   ctx.URL,
		CreatedAt: time.Now().UTC(),
	}
}

// fillGuessedEmail sets the top-ranked guessed address and keeps the
// alternatives for the orchestrator's upgrade pass.
func (e *Extractor) fillGuessedEmail(c *model.Contact, company string, ctx Context) {
	target := ctx.Domain
	if target == "" {
		target = company
	}
	ranked := e.checker.RankCandidates(c.FirstName, c.LastName, target)
	if len(ranked) == 0 {
		return
	}
	c.Email = ranked[0].Email
	for _, alt := range ranked[1:] {
		c.AltEmails = append(c.AltEmails, alt.Email)
	}
}

// scanEmails returns distinct personal-looking addresses in order of
// first appearance.
func (e *Extractor) scanEmails(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, email := range emailScanRe.FindAllString(text, -1) {
		email = strings.ToLower(email)
		if seen[email] || len(email) >= 50 {
			continue
		}
		at := strings.LastIndex(email, "@")
		local, domain := email[:at], email[at+1:]
		if nonPersonalLocals[local] || strings.HasPrefix(local, "noreply") {
			continue
		}
		if placeholderDomains[domain] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

type person struct {
	name     string
	position string
}

// scanPeople finds name+title co-occurrences. First match wins per
// distinct name; duplicates within one source are collapsed.
func scanPeople(text string) []person {
	seen := make(map[string]bool)
	var people []person

	add := func(name, context string) {
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		people = append(people, person{name: name, position: positionFromText(context)})
	}

	for _, m := range titleNameRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[0])
	}
	for _, m := range nameTitleRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[0])
	}

	return people
}

// resolveCompany picks the best company label: explicit context, then
// a company-shaped phrase in the text, then the page title, then the
// transformed source domain.
func (e *Extractor) resolveCompany(text string, ctx Context) string {
	if ctx.Company != "" {
		return ctx.Company
	}
	exclude := make(map[string]bool)
	for _, p := range scanPeople(text) {
		first, _ := splitName(p.name)
		exclude[first] = true
	}
	if c := companyFromText(text, exclude); c != "" {
		return c
	}
	if title := Title(text); title != "" {
		if c := companyFromTitle(title); c != "" {
			return c
		}
	}
	return companyFromDomain(ctx.Domain)
}

// companyFromText looks for "<Name> Inc|Corp|..." shapes, skipping any
// leading word in the exclude set (extracted person first names).
func companyFromText(text string, exclude map[string]bool) string {
	for _, m := range companyTextRe.FindAllStringSubmatch(text, -1) {
		if exclude != nil && exclude[m[1]] {
			continue
		}
		return m[1] + " " + m[2]
	}
	return ""
}

// companyFromTitle trims separators and qualifiers from a page title.
func companyFromTitle(title string) string {
	for _, sep := range []string{"|", " - ", " – "} {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 50 {
		return ""
	}
	return title
}

// companyFromDomain title-cases the registrable label of a domain.
func companyFromDomain(domain string) string {
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return ""
	}
	return titleCaser.String(label)
}

// positionFromText returns the first senior title found, or
// "Professional" when none match.
func positionFromText(text string) string {
	if m := titleOnlyRe.FindString(text); m != "" {
		return canonicalTitle(m)
	}
	return "Professional"
}

// canonicalTitle normalizes case: acronyms upper, words title-cased.
func canonicalTitle(t string) string {
	switch upper := strings.ToUpper(t); upper {
	case "CEO", "CTO", "CFO", "COO", "VP":
		return upper
	default:
		return titleCaser.String(strings.ToLower(t))
	}
}

func matchEmail(emails []string, first, last string) string {
	f, l := strings.ToLower(first), strings.ToLower(last)
	for _, email := range emails {
		if strings.Contains(email, f) || strings.Contains(email, l) {
			return email
		}
	}
	return ""
}

func nameFromLocalPart(email string) (first, last string) {
	local := email[:strings.LastIndex(email, "@")]
	parts := slugSplitRe.Split(local, -1)
	if len(parts) > 0 && parts[0] != "" {
		first = titleCaser.String(strings.ToLower(parts[0]))
	}
	if len(parts) > 1 && parts[1] != "" {
		last = titleCaser.String(strings.ToLower(parts[1]))
	}
	return first, last
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func profileSlug(profileURL string) string {
	clean := strings.SplitN(strings.SplitN(profileURL, "?", 2)[0], "#", 2)[0]
	clean = strings.TrimRight(clean, "/")
	if i := strings.LastIndex(clean, "/"); i >= 0 {
		return clean[i+1:]
	}
	return clean
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
