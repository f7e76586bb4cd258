// Package wikitext renders the structured description markup Wikimedia
// Commons expects alongside an uploaded file.
package wikitext

import (
	"fmt"
	"strings"

	"github.com/nemoralis/wlmaz/internal/adapter"
)

const (
	// CampaignCategory is appended to every submission
	CampaignCategory = "Wiki Loves Monuments 2025 in Azerbaijan"

	// UploadComment is the fixed edit comment for every submission
	UploadComment = "Uploaded via wikilovesmonuments.az"

	defaultLicenseTemplate = "{{self|cc-by-sa-4.0}}"
)

// licenseTemplates maps the closed set of accepted license choices to their
// Commons declarations. Anything else falls back to the most restrictive
// share-alike template rather than failing.
var licenseTemplates = map[string]string{
	"cc-by-sa-4.0": "{{self|cc-by-sa-4.0}}",
	"cc-by-4.0":    "{{self|cc-by-4.0}}",
	"cc0":          "{{self|cc0}}",
}

// Fields are the user-entered values a description is rendered from. Title is
// not part of the markup; it only names the file. Missing optional fields
// simply omit their section.
type Fields struct {
	Description string
	License     string
	Lat         string
	Lon         string
	Category    string
	Author      string
}

// Composer renders description markup. Pure and total: there is no failure
// mode, so validation of required fields belongs to the caller.
type Composer struct {
	clock adapter.Clock
}

// NewComposer creates a new composer
func NewComposer(clock adapter.Clock) *Composer {
	return &Composer{clock: clock}
}

// Compose renders the description block and the edit comment
func (c *Composer) Compose(f Fields) (markup string, comment string) {
	license, ok := licenseTemplates[f.License]
	if !ok {
		license = defaultLicenseTemplate
	}

	// Geocoding block only when both coordinates are present
	location := ""
	if f.Lat != "" && f.Lon != "" {
		location = fmt.Sprintf("\n{{Location|%s|%s}}", f.Lat, f.Lon)
	}

	categories := fmt.Sprintf("[[Category:%s]]", CampaignCategory)
	if f.Category != "" {
		categories += fmt.Sprintf("\n[[Category:%s]]", f.Category)
	}

	// Authorship is attributed verbatim to the submitting identity
	author := ""
	if f.Author != "" {
		author = fmt.Sprintf("[[User:%s|%s]]", f.Author, f.Author)
	}

	var b strings.Builder
	b.WriteString("== {{int:filedesc}} ==\n")
	b.WriteString("{{Information\n")
	fmt.Fprintf(&b, "|description={{en|1=%s}}\n", f.Description)
	fmt.Fprintf(&b, "|date=%s\n", c.clock.Now().UTC().Format("2006-01-02"))
	b.WriteString("|source={{own}}\n")
	fmt.Fprintf(&b, "|author=%s\n", author)
	b.WriteString("|permission=\n")
	b.WriteString("|other_versions=\n")
	b.WriteString("}}\n")
	b.WriteString(location)
	b.WriteString("\n\n== {{int:license-header}} ==\n")
	b.WriteString(license)
	b.WriteString("\n\n")
	b.WriteString(categories)
	b.WriteString("\n")

	return b.String(), UploadComment
}
