package models

import "time"

// Lifecycle stages assigned to a solicitation by the internal triage
// workflow. The scraper only ever creates records in StatusNew.
const (
	StatusNew         = "new"
	StatusResearching = "researching"
	StatusPursuing    = "pursuing"
	StatusSubmitted   = "submitted"
	StatusWon         = "won"
	StatusLost        = "lost"
	StatusArchived    = "archived"
)

// TypeNonRelevant is the sentinel category for records triaged out of the
// pipeline. Duplicate checks must include these so a junked solicitation is
// not re-ingested on the next run.
const TypeNonRelevant = "nonRelevant"

// Solicitation is one procurement opportunity discovered on an external
// bid-listing site. Dates are ISO-8601 strings across the wire and in
// storage; an empty closing date means the record is treated as open.
type Solicitation struct {
	ID                 string                 `json:"id"`
	Site               string                 `json:"site"`
	SiteID             string                 `json:"siteId"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	Issuer             string                 `json:"issuer"`
	Location           string                 `json:"location"`
	PublishDate        string                 `json:"publishDate,omitempty"`
	ClosingDate        string                 `json:"closingDate,omitempty"`
	QuestionsDueByDate string                 `json:"questionsDueByDate,omitempty"`
	CnStatus           string                 `json:"cnStatus,omitempty"`
	CnType             string                 `json:"cnType,omitempty"`
	AiPursueScore      float64                `json:"aiPursueScore,omitempty"`
	SiteURL            string                 `json:"siteUrl,omitempty"`
	ExternalLinks      []string               `json:"externalLinks,omitempty"`
	SiteData           map[string]interface{} `json:"siteData,omitempty"`
	ContactInfo        string                 `json:"contactInfo,omitempty"`
	CreatedAt          time.Time              `json:"createdAt,omitempty"`
	UpdatedAt          time.Time              `json:"updatedAt,omitempty"`
}

// ScriptLog is the audit record for one scraper run. Exactly one is written
// per invocation, success or failure. Data carries ad-hoc resumable-session
// bookmarks (e.g. last processed page).
type ScriptLog struct {
	ID           string                 `json:"id"`
	Script       string                 `json:"script"`
	Message      string                 `json:"message"`
	SuccessCount int                    `json:"successCount"`
	FailCount    int                    `json:"failCount"`
	DupCount     int                    `json:"dupCount"`
	JunkCount    int                    `json:"junkCount"`
	Elapsed      string                 `json:"elapsed"`
	Data         map[string]interface{} `json:"data,omitempty"`
	CreatedAt    time.Time              `json:"createdAt,omitempty"`
}

// Source is a directory entry for an issuing organization or bid platform.
type Source struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	SiteURL   string    `json:"siteUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
