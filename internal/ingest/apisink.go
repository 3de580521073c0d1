package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bidwatch/bidwatch/models"
)

// APISink talks to the internal REST surface with a bearer service token.
type APISink struct {
	client *resty.Client
}

// NewAPISink builds a sink against baseURL (e.g. "http://localhost:10210").
func NewAPISink(baseURL, serviceToken string, timeout time.Duration) *APISink {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(serviceToken).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &APISink{client: client}
}

func (a *APISink) Exists(ctx context.Context, site, siteID string) (bool, error) {
	var matches []models.Solicitation
	res, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"filters.site":       site,
			"filters.siteId":     siteID,
			"includeNonRelevant": "true",
		}).
		SetResult(&matches).
		Get("/api/solicitations")
	if err != nil {
		return false, err
	}
	if res.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("list solicitations: status %d", res.StatusCode())
	}
	return len(matches) > 0, nil
}

func (a *APISink) Create(ctx context.Context, sol models.Solicitation) (models.Solicitation, bool, error) {
	var saved models.Solicitation
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(sol).
		SetResult(&saved).
		Post("/api/solicitations")
	if err != nil {
		return models.Solicitation{}, false, err
	}
	switch res.StatusCode() {
	case http.StatusCreated:
		return saved, true, nil
	case http.StatusOK:
		// API reports an existing (site, siteId) row with 200
		return saved, false, nil
	default:
		return models.Solicitation{}, false, fmt.Errorf("create solicitation: status %d", res.StatusCode())
	}
}

func (a *APISink) LatestLog(ctx context.Context, script string) (models.ScriptLog, bool, error) {
	var logs []models.ScriptLog
	res, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"script": script, "limit": "1"}).
		SetResult(&logs).
		Get("/api/scriptlogs")
	if err != nil {
		return models.ScriptLog{}, false, err
	}
	if res.StatusCode() != http.StatusOK {
		return models.ScriptLog{}, false, fmt.Errorf("list script logs: status %d", res.StatusCode())
	}
	if len(logs) == 0 {
		return models.ScriptLog{}, false, nil
	}
	return logs[0], true, nil
}

func (a *APISink) WriteLog(ctx context.Context, l models.ScriptLog) error {
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(l).
		Post("/api/scriptlogs")
	if err != nil {
		return err
	}
	if res.StatusCode() != http.StatusCreated {
		return fmt.Errorf("create script log: status %d", res.StatusCode())
	}
	return nil
}
