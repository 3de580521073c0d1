package search

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve"

	"github.com/bidwatch/bidwatch/models"
)

// Index is the local full-text mirror of the solicitations table. Every
// persisted record is indexed; deletes remove the mirror doc as well.
type Index struct {
	idx bleve.Index
}

type document struct {
	Site        string `json:"site"`
	SiteID      string `json:"siteId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Issuer      string `json:"issuer"`
	Location    string `json:"location"`
}

// Open loads the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("open search index: %w", err)
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a throwaway index (tests).
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

// IndexSolicitation mirrors one record into the search index.
func (i *Index) IndexSolicitation(sol models.Solicitation) error {
	return i.idx.Index(sol.ID, document{
		Site:        sol.Site,
		SiteID:      sol.SiteID,
		Title:       sol.Title,
		Description: sol.Description,
		Issuer:      sol.Issuer,
		Location:    sol.Location,
	})
}

// DeleteSolicitation removes a record's mirror doc.
func (i *Index) DeleteSolicitation(id string) error {
	return i.idx.Delete(id)
}

// Hit is one search result with its relevance score.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Search runs a query-string search and returns matching record IDs.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 25
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), limit, 0, false)
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}
