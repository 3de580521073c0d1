package ingest

import (
	"fmt"
	"strings"

	"github.com/bidwatch/bidwatch/models"
)

// Normalize maps a vendor adapter's raw record into the canonical shape:
// trims text fields, sanitizes every date into ISO-8601 (unparseable dates
// become empty, never errors), and rejects rows missing the identity fields.
// Pure function; a returned error means the row counts as a parse failure.
func Normalize(raw models.Solicitation) (models.Solicitation, error) {
	sol := raw
	sol.Site = strings.TrimSpace(sol.Site)
	sol.SiteID = strings.TrimSpace(sol.SiteID)
	sol.Title = strings.TrimSpace(sol.Title)
	sol.Description = strings.TrimSpace(sol.Description)
	sol.Issuer = strings.TrimSpace(sol.Issuer)
	sol.Location = strings.TrimSpace(sol.Location)
	sol.ContactInfo = strings.TrimSpace(sol.ContactInfo)
	sol.SiteURL = strings.TrimSpace(sol.SiteURL)

	if sol.Site == "" || sol.SiteID == "" {
		return models.Solicitation{}, fmt.Errorf("row missing site identity (site=%q siteId=%q)", sol.Site, sol.SiteID)
	}
	if sol.Title == "" {
		return models.Solicitation{}, fmt.Errorf("row %s/%s missing title", sol.Site, sol.SiteID)
	}

	sol.PublishDate = SanitizeDateString(sol.PublishDate)
	sol.ClosingDate = SanitizeDateString(sol.ClosingDate)
	sol.QuestionsDueByDate = SanitizeDateString(sol.QuestionsDueByDate)

	if sol.CnStatus == "" {
		sol.CnStatus = models.StatusNew
	}
	return sol, nil
}
