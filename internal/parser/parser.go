// Package parser turns raw EXPLAIN output, in text or JSON form, into plan
// trees.
package parser

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"

	"github.com/jacobarthurs/plantree/internal/plan"
)

// Parser holds configuration only. Every call builds its own state, so a
// single Parser may be shared between goroutines.
type Parser struct {
	logger log.Logger
	now    func() time.Time
}

type Option func(*Parser)

// WithLogger sets the logger used for debug output about skipped lines and
// format detection.
func WithLogger(l log.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// WithClock overrides the time source used for plan ids and default names.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{
		logger: log.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromSource cleans up source, detects whether it holds JSON or text and
// returns the content holder for plan.New.
func (p *Parser) FromSource(source string) (*plan.Node, error) {
	source = Cleanup(source)

	if jsoniter.Valid([]byte(source)) {
		level.Debug(p.logger).Log("msg", "detected format", "format", "json")
		doc, err := ParseJSON(source)
		if err != nil {
			return nil, err
		}
		return ContentFromJSON(doc)
	}

	if _, ok := jsonWindow(source); ok {
		level.Debug(p.logger).Log("msg", "detected format", "format", "embedded-json")
		doc, err := FromJSONLines(source)
		if err != nil {
			return nil, err
		}
		return ContentFromJSON(doc)
	}

	level.Debug(p.logger).Log("msg", "detected format", "format", "text")
	return p.FromText(source)
}

// ParsePlan parses source and builds the annotated plan. When query is empty
// the plan's own "Query Text" property is used, if present.
func (p *Parser) ParsePlan(name, source, query string) (*plan.Plan, error) {
	content, err := p.FromSource(source)
	if err != nil {
		return nil, err
	}
	if query == "" {
		if v, ok := content.Get(plan.PropQueryText); ok {
			query, _ = v.(string)
		}
	}
	return plan.New(name, content, query, p.now())
}
