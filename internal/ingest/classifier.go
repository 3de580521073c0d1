package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bidwatch/bidwatch/models"
	"github.com/bidwatch/bidwatch/provider"
)

// DefaultCategories is the fixed business-domain list the relevance gate
// matches against.
var DefaultCategories = []string{
	"IT staffing and consulting services",
	"ERP implementation and support",
	"SAP",
	"Oracle ERP / PeopleSoft",
	"Workday",
	"Microsoft Dynamics",
	"software development and maintenance",
	"data and analytics services",
}

// Classifier gates scraped solicitations on business relevance via an LLM.
type Classifier struct {
	Provider   provider.Provider
	Categories []string
}

func NewClassifier(p provider.Provider) *Classifier {
	return &Classifier{Provider: p, Categories: DefaultCategories}
}

const relevanceSystemPrompt = `You review government procurement solicitations for an IT services firm.
Given a solicitation, decide whether it falls into one of the firm's service categories.
Respond with exactly one word: "yes" or "no". Do not explain.`

// IsITRelated returns true only when the model's reply, lowercased and
// trimmed, is exactly "yes". Ambiguous phrasing ("Yes, because...") is a
// reject; there is no retry or confidence threshold. Transport errors are
// returned so the caller counts the row as a failure.
func (c *Classifier) IsITRelated(ctx context.Context, sol models.Solicitation) (bool, error) {
	user := fmt.Sprintf(`Service categories:
- %s

Solicitation:
Title: %s
Issuer: %s
Description: %s`,
		strings.Join(c.categories(), "\n- "), sol.Title, sol.Issuer, sol.Description)

	reply, err := c.Provider.Complete(ctx, relevanceSystemPrompt, user)
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(reply)) == "yes", nil
}

const scoreSystemPrompt = `You score government procurement solicitations for an IT services firm.
Respond with a single decimal number between 0.0 and 1.0 indicating how strongly the firm should pursue the solicitation. Respond with the number only.`

// PursueScore asks the model for a 0.0-1.0 pursuit score. A reply that does
// not parse as a float is an error; callers treat the score as best-effort
// and leave it at zero.
func (c *Classifier) PursueScore(ctx context.Context, sol models.Solicitation) (float64, error) {
	user := fmt.Sprintf("Title: %s\nIssuer: %s\nDescription: %s", sol.Title, sol.Issuer, sol.Description)
	reply, err := c.Provider.Complete(ctx, scoreSystemPrompt, user)
	if err != nil {
		return 0, err
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable score %q: %w", reply, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

func (c *Classifier) categories() []string {
	if len(c.Categories) > 0 {
		return c.Categories
	}
	return DefaultCategories
}
