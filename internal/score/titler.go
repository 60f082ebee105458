package score

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// TitleContext carries everything known about an album that a title
// could mention. Zero-valued fields simply make fewer templates
// eligible.
type TitleContext struct {
	Location  string
	TimeOfDay string
	Date      time.Time
	Count     int
	Tags      []string
}

// Titler renders album titles from templates, most specific first.
// Title selection is deterministic except for the choice among
// templates of equal specificity.
type Titler struct {
	pick func(n int) int
}

// NewTitler creates a titler using the shared math/rand source for
// template selection.
func NewTitler() *Titler {
	return &Titler{pick: rand.Intn}
}

// templateTier groups templates of equal specificity with the fields
// they require. Tiers are tried in order; the first tier whose
// requirements the context satisfies wins.
type templateTier struct {
	needsTags     bool
	needsLocation bool
	needsTime     bool
	needsDate     bool
	templates     []string
}

var titleTiers = []templateTier{
	{needsTags: true, needsLocation: true, templates: []string{
		"{tag} in {location}",
		"{tag} at {location}",
	}},
	{needsTags: true, templates: []string{
		"{tag}",
		"{tag} Moments",
	}},
	{needsLocation: true, needsTime: true, templates: []string{
		"{time} in {location}",
		"An {time} in {location}",
	}},
	{needsLocation: true, templates: []string{
		"Memories from {location}",
		"{location}",
	}},
	{needsTime: true, templates: []string{
		"{time} Memories",
	}},
	{needsDate: true, templates: []string{
		"{date}",
		"Memories from {date}",
	}},
	{templates: []string{
		"Photos",
		"Memories",
	}},
}

var placeholderPattern = regexp.MustCompile(`\{[a-z]+\}`)

// Title renders a non-empty display title for the context.
func (t *Titler) Title(ctx TitleContext) string {
	tier := titleTiers[len(titleTiers)-1]
	for _, candidate := range titleTiers {
		if candidate.needsTags && len(ctx.Tags) == 0 {
			continue
		}
		if candidate.needsLocation && ctx.Location == "" {
			continue
		}
		if candidate.needsTime && ctx.TimeOfDay == "" {
			continue
		}
		if candidate.needsDate && ctx.Date.IsZero() {
			continue
		}
		tier = candidate
		break
	}

	template := tier.templates[t.pick(len(tier.templates))]
	title := fill(template, ctx)
	if ctx.Count == 1 {
		title = singularize(title)
	}
	if title == "" {
		return "Photos"
	}
	return title
}

func fill(template string, ctx TitleContext) string {
	r := strings.NewReplacer(
		"{tag}", primaryTag(ctx.Tags),
		"{location}", ctx.Location,
		"{time}", ctx.TimeOfDay,
		"{date}", formatDate(ctx.Date),
	)
	title := r.Replace(template)

	// Anything a replacer left behind is an unknown placeholder.
	title = placeholderPattern.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}

func primaryTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("January 2006")
}

// singularize trims a simple English plural from the final word of a
// title. It handles the regular forms that appear in templates and
// tags; irregular nouns pass through unchanged.
func singularize(title string) string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return title
	}
	last := words[len(words)-1]
	switch {
	case strings.HasSuffix(last, "ies") && len(last) > 3:
		last = strings.TrimSuffix(last, "ies") + "y"
	case strings.HasSuffix(last, "ses") || strings.HasSuffix(last, "ss"):
		// "glasses", "chess"; leave alone
	case strings.HasSuffix(last, "s") && len(last) > 1:
		last = strings.TrimSuffix(last, "s")
	}
	words[len(words)-1] = last
	return strings.Join(words, " ")
}
