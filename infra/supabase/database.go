package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DatabaseClient handles Supabase Database (PostgREST) operations with the
// service role key.
type DatabaseClient struct {
	client *Client
}

// From starts a query builder for a table.
func (d *DatabaseClient) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  d.client,
		table:   table,
		method:  http.MethodGet,
		columns: "*",
		params:  url.Values{},
		headers: make(map[string]string),
	}
}

// =============================================================================
// Query Builder
// =============================================================================

// QueryBuilder builds and executes database queries.
type QueryBuilder struct {
	client  *Client
	table   string
	method  string
	columns string
	params  url.Values
	body    []byte
	err     error
	headers map[string]string
	single  bool
}

// Select specifies the columns to return. After Update it selects the
// columns of the returned representation.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.columns = columns
	return q
}

// Update updates the rows matched by the filters and returns them.
func (q *QueryBuilder) Update(data interface{}) *QueryBuilder {
	q.method = http.MethodPatch
	body, err := json.Marshal(data)
	if err != nil {
		q.err = fmt.Errorf("marshal update: %w", err)
	}
	q.body = body
	q.headers["Prefer"] = "return=representation"
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value interface{}) *QueryBuilder {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Order adds an ordering clause.
func (q *QueryBuilder) Order(column string, dir OrderDirection) *QueryBuilder {
	q.params.Add("order", column+"."+string(dir))
	return q
}

// Limit caps the number of returned rows.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single requests exactly one row. PostgREST answers 406 with code
// PGRST116 when zero or several rows match.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	return q
}

func (q *QueryBuilder) buildURL() string {
	params := url.Values{}
	for k, v := range q.params {
		params[k] = v
	}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	target := q.client.restURL + "/" + url.PathEscape(q.table)
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// Execute runs the query and returns the raw response body.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}

	headers := make(map[string]string, len(q.headers)+1)
	for k, v := range q.headers {
		headers[k] = v
	}
	if q.single {
		headers["Accept"] = "application/vnd.pgrst.object+json"
	}

	respBody, statusCode, err := q.client.do(ctx, request{
		operation: "rest." + q.table + "." + methodOperation(q.method),
		method:    q.method,
		url:       q.buildURL(),
		body:      q.body,
		headers:   headers,
	})
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// ExecuteInto runs the query and decodes the response into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest interface{}) error {
	body, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func methodOperation(method string) string {
	switch method {
	case http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	case http.MethodPost:
		return "insert"
	default:
		return "select"
	}
}
