package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

// MaxRows caps the page size of a passthrough query.
const MaxRows = 1000

var coreName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SolrBackend implements Backend over the Solr HTTP API.
type SolrBackend struct {
	client *resty.Client
}

// NewSolrBackend creates a new Solr search backend
func NewSolrBackend(cfg config.SolrConfig) *SolrBackend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Accept", "application/json")
	return &SolrBackend{client: client}
}

type solrError struct {
	Error struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

type selectResponse struct {
	ResponseHeader struct {
		QTime int `json:"QTime"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int                      `json:"numFound"`
		Start    int                      `json:"start"`
		Docs     []map[string]interface{} `json:"docs"`
	} `json:"response"`
}

type lukeResponse struct {
	Fields map[string]struct {
		Type   string `json:"type"`
		Schema string `json:"schema"`
		Docs   int    `json:"docs"`
	} `json:"fields"`
}

func validateCore(op, core string) error {
	if !coreName.MatchString(core) {
		return apperrors.Validation(op, "search core name is invalid")
	}
	return nil
}

// Search runs the query against /{core}/select.
func (b *SolrBackend) Search(ctx context.Context, q Query) (*Results, error) {
	const op = "SolrBackend.Search"

	if err := validateCore(op, q.Core); err != nil {
		return nil, err
	}
	if q.Rows < 0 || q.Rows > MaxRows {
		return nil, apperrors.Validation(op, fmt.Sprintf("rows must be between 0 and %d", MaxRows))
	}
	if q.Start < 0 {
		return nil, apperrors.Validation(op, "start must not be negative")
	}

	params := url.Values{}
	params.Set("q", q.Q)
	if strings.TrimSpace(q.Q) == "" {
		params.Set("q", "*:*")
	}
	for _, fq := range q.Filters {
		params.Add("fq", fq)
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if len(q.Fields) > 0 {
		params.Set("fl", strings.Join(q.Fields, ","))
	}
	if q.Rows > 0 {
		params.Set("rows", strconv.Itoa(q.Rows))
	}
	params.Set("start", strconv.Itoa(q.Start))
	params.Set("wt", "json")

	var out selectResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("core", q.Core).
		SetQueryParamsFromValues(params).
		SetResult(&out).
		Get("/{core}/select")
	if err := classify(op, resp, err); err != nil {
		return nil, err
	}

	docs := out.Response.Docs
	if docs == nil {
		docs = []map[string]interface{}{}
	}
	return &Results{
		NumFound: out.Response.NumFound,
		Start:    out.Response.Start,
		QTime:    out.ResponseHeader.QTime,
		Docs:     docs,
	}, nil
}

// Fields reads the core's field list from the Luke handler, sorted by name.
func (b *SolrBackend) Fields(ctx context.Context, core string) ([]Field, error) {
	const op = "SolrBackend.Fields"

	if err := validateCore(op, core); err != nil {
		return nil, err
	}

	var out lukeResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("core", core).
		SetQueryParams(map[string]string{"numTerms": "0", "wt": "json"}).
		SetResult(&out).
		Get("/{core}/admin/luke")
	if err := classify(op, resp, err); err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(out.Fields))
	for name, f := range out.Fields {
		fields = append(fields, Field{Name: name, Type: f.Type, Schema: f.Schema, Docs: f.Docs})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// classify maps transport failures and Solr error responses to app errors.
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.Upstream(op, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	msg := ""
	var se solrError
	if json.Unmarshal(resp.Body(), &se) == nil {
		msg = se.Error.Msg
	}
	switch resp.StatusCode() {
	case http.StatusBadRequest:
		if msg == "" {
			msg = "search query was rejected"
		}
		return apperrors.Validation(op, msg)
	case http.StatusNotFound:
		return apperrors.NotFound(op, "search core not found")
	}
	return apperrors.Upstream(op, fmt.Errorf("solr returned %d: %s", resp.StatusCode(), msg))
}
