package client

import (
	"net/url"
	"strings"
)

// QueryBuilder incrementally builds a URL query string. Keys and values
// are form-encoded as they are appended, so neither can break out of
// their pair.
type QueryBuilder struct {
	base  string
	pairs strings.Builder
}

// NewQueryBuilder starts a query for baseURL.
func NewQueryBuilder(baseURL string) *QueryBuilder {
	return &QueryBuilder{base: baseURL}
}

// Append adds key=value, percent-encoding both. Spaces become "+".
func (qb *QueryBuilder) Append(key, value string) *QueryBuilder {
	qb.pairs.WriteString(url.QueryEscape(key))
	qb.pairs.WriteByte('=')
	qb.pairs.WriteString(url.QueryEscape(value))
	qb.pairs.WriteByte('&')

	return qb
}

// Build returns the base URL followed by the query. With no pairs the
// base URL is returned unchanged, without a dangling "?".
func (qb *QueryBuilder) Build() string {
	if qb.pairs.Len() == 0 {
		return qb.base
	}

	return qb.base + "?" + qb.Encode()
}

// Encode returns only the encoded pairs, without the base URL or "?".
// It is the x-www-form-urlencoded rendering of the appended pairs.
func (qb *QueryBuilder) Encode() string {
	return strings.TrimSuffix(qb.pairs.String(), "&")
}

func (qb *QueryBuilder) String() string {
	return qb.Build()
}
