// Package search is a full text index over community reports.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	q "github.com/blevesearch/bleve/v2/search/query"
)

const (
	DefaultSize  = 20
	MaxSize      = 100
	queryTimeout = 2 * time.Second
)

// Doc is the indexed projection of a report.
type Doc struct {
	ID          string
	Title       string
	Description string
	Actions     []string
	Kind        string
	Urgency     string
	Timestamp   time.Time
}

type Request struct {
	Query   string
	Kind    string
	Urgency string
	Size    int
}

type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type Engine interface {
	Index(ctx context.Context, doc Doc) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, req Request) ([]Hit, error)
	Count() (uint64, error)
	Close() error
}

type bleveEngine struct {
	index bleve.Index
}

// NewMemory builds an index that lives only in process memory.
func NewMemory() (Engine, error) {
	idx, err := bleve.NewMemOnly(BuildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create report index: %w", err)
	}
	return &bleveEngine{index: idx}, nil
}

// bleve documents are plain maps so the type field routes them to the
// report mapping.
func (d Doc) fields() map[string]any {
	return map[string]any{
		"docType":     DocType,
		"title":       d.Title,
		"description": d.Description,
		"actions":     strings.Join(d.Actions, "\n"),
		"kind":        d.Kind,
		"urgency":     d.Urgency,
		"timestamp":   d.Timestamp,
	}
}

func (e *bleveEngine) Index(ctx context.Context, doc Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("index report: empty id")
	}
	return e.index.Index(doc.ID, doc.fields())
}

func (e *bleveEngine) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.index.Delete(id)
}

func (e *bleveEngine) Search(ctx context.Context, req Request) ([]Hit, error) {
	size := req.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	sr := bleve.NewSearchRequestOptions(buildQuery(req), size, 0, false)
	sr.SortBy([]string{"-_score", "-timestamp"})

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := e.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("search reports: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func (e *bleveEngine) Count() (uint64, error) {
	return e.index.DocCount()
}

func (e *bleveEngine) Close() error {
	return e.index.Close()
}

// buildQuery matches the text on every analyzed field with a little fuzziness
// and ANDs in the keyword filters. An empty request matches everything.
func buildQuery(req Request) q.Query {
	var must []q.Query

	if text := strings.TrimSpace(req.Query); text != "" {
		var should []q.Query
		for _, field := range []string{"title", "description", "actions"} {
			mq := bleve.NewMatchQuery(text)
			mq.SetField(field)
			mq.SetFuzziness(1)
			if field == "title" {
				mq.SetBoost(2)
			}
			should = append(should, mq)
		}
		must = append(must, bleve.NewDisjunctionQuery(should...))
	}
	for field, v := range map[string]string{"kind": req.Kind, "urgency": req.Urgency} {
		if v == "" {
			continue
		}
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		must = append(must, tq)
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(must...)
}
