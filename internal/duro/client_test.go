// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package duro

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bom-reconcile/internal/httputil"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const searchJSON = `{"data":{"components":{"connection":{"edges":[
  {"node":{"id":"c-9","name":"Frame Assy Rev B","cpn":{"displayValue":"900-00100-01"}}},
  {"node":{"id":"c-1","name":"Frame Assy","cpn":{"displayValue":"900-00100"}}}
]}}}}`

const childrenJSON = `{"data":{"componentsByIds":[{"id":"c-1","name":"Frame Assy","cpn":{"displayValue":"900-00100"},
  "children":[
    {"itemNumber":1,"quantity":2.0,"component":{"id":"p-1","name":"Bracket","cpn":{"displayValue":"800-00761-00"}}},
    {"itemNumber":null,"quantity":null,"component":{"id":"p-2","name":"Hex Nut M3","cpn":{"displayValue":"406-00043-00-00"}}},
    {"itemNumber":"3","quantity":0.5,"component":{"id":"p-3","name":"Adhesive","cpn":null}}
  ]}]}}`

// fakeDuro answers GraphQL documents by their root field.
func fakeDuro(t *testing.T, token string, handler func(query string) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, token, r.Header.Get(TokenHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req gqlRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		code, body := handler(req.Query)
		w.WriteHeader(code)
		io.WriteString(w, body)
	}))
}

func testClient(url string) *Client {
	return New(types.DuroConfig{APIURL: url, APIToken: "tok"}, nil)
}

func TestFetchBOM(t *testing.T) {
	var queries []string
	ts := fakeDuro(t, "tok", func(q string) (int, string) {
		queries = append(queries, q)
		switch {
		case strings.Contains(q, "components(libraryType: GENERAL"):
			return http.StatusOK, searchJSON
		case strings.Contains(q, "componentsByIds"):
			return http.StatusOK, childrenJSON
		}
		return http.StatusBadRequest, `{}`
	})
	defer ts.Close()

	asm, err := testClient(ts.URL).FetchBOM(context.Background(), "900-00100")
	require.NoError(t, err)

	assert.Equal(t, "c-1", asm.ID)
	assert.Equal(t, "900-00100", asm.CPN.DisplayValue)
	require.Len(t, asm.Children, 3)
	assert.Equal(t, Scalar("1"), asm.Children[0].ItemNumber)
	assert.Equal(t, Scalar("2"), asm.Children[0].Quantity)
	assert.Equal(t, Scalar(""), asm.Children[1].ItemNumber)
	assert.Equal(t, Scalar("0.5"), asm.Children[2].Quantity)

	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], `cpn: "900-00100"`)
	assert.Contains(t, queries[0], "connection(first: 20)")
	assert.Contains(t, queries[1], `ids: ["c-1"]`)
}

func TestFetchBOMNotFound(t *testing.T) {
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		return http.StatusOK, searchJSON
	})
	defer ts.Close()

	_, err := testClient(ts.URL).FetchBOM(context.Background(), "900-99999")
	assert.ErrorIs(t, err, ErrAssemblyNotFound)
}

func TestSearchComponentExactMatchOnly(t *testing.T) {
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		return http.StatusOK, searchJSON
	})
	defer ts.Close()

	c := testClient(ts.URL)
	node, err := c.SearchComponent(context.Background(), "900-00100-01")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "c-9", node.ID)

	node, err = c.SearchComponent(context.Background(), "900-001")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestGraphQLErrors(t *testing.T) {
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Field 'cpn' is not defined"}]}`
	})
	defer ts.Close()

	_, err := testClient(ts.URL).SearchComponent(context.Background(), "x")
	var gerr *GraphQLError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"Field 'cpn' is not defined"}, gerr.Messages)
}

func TestHTTPStatusError(t *testing.T) {
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		return http.StatusUnauthorized, `{"message":"bad token"}`
	})
	defer ts.Close()

	_, err := testClient(ts.URL).AssemblyChildren(context.Background(), "c-1")
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Contains(t, err.Error(), "bad token")
}

func TestRetriesThrottledRequests(t *testing.T) {
	var calls int32
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return http.StatusTooManyRequests, ``
		}
		return http.StatusOK, searchJSON
	})
	defer ts.Close()

	node, err := testClient(ts.URL).SearchComponent(context.Background(), "900-00100")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNotConfigured(t *testing.T) {
	c := New(types.DuroConfig{}, nil)
	assert.False(t, c.Configured())
	_, err := c.FetchBOM(context.Background(), "900-00100")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUpdateAssemblyChildren(t *testing.T) {
	var got string
	ts := fakeDuro(t, "tok", func(q string) (int, string) {
		got = q
		return http.StatusOK, `{"data":{"updateComponent":{"id":"c-1","children":[{"itemNumber":5,"quantity":2}]}}}`
	})
	defer ts.Close()

	asm, err := testClient(ts.URL).UpdateAssemblyChildren(context.Background(), "c-1", []ChildUpdate{
		{ComponentID: "p-1", Quantity: "2", ItemNumber: "5"},
		{ComponentID: "p-2", Quantity: "AR", ItemNumber: "A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", asm.ID)

	assert.True(t, strings.HasPrefix(got, "mutation {"))
	assert.Contains(t, got, `id: "c-1"`)
	assert.Contains(t, got, `{ componentId: "p-1", quantity: 2, itemNumber: 5 }`)
	assert.Contains(t, got, `{ componentId: "p-2", quantity: 1, itemNumber: 0 }`)
}

func TestUpdates(t *testing.T) {
	children := []Child{
		{ItemNumber: "1", Quantity: "2", Component: Component{ID: "p-1"}},
		{ItemNumber: "7", Quantity: "1", Component: Component{ID: "p-2"}},
	}
	got := Updates(children, map[string]string{"p-2": "2"})
	assert.Equal(t, []ChildUpdate{
		{ComponentID: "p-1", Quantity: "2", ItemNumber: "1"},
		{ComponentID: "p-2", Quantity: "1", ItemNumber: "2"},
	}, got)
}

func TestDoPassesStatusThrough(t *testing.T) {
	ts := fakeDuro(t, "tok", func(string) (int, string) {
		return http.StatusBadGateway, `upstream down`
	})
	defer ts.Close()

	code, body, err := testClient(ts.URL).Do(context.Background(), []byte(`{"query":"{ x }"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "upstream down", string(body))
}

func TestScalarUnmarshal(t *testing.T) {
	var v struct {
		A, B, C, D Scalar
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A":3,"B":"12","C":null,"D":1.50}`), &v))
	assert.Equal(t, Scalar("3"), v.A)
	assert.Equal(t, Scalar("12"), v.B)
	assert.Equal(t, Scalar(""), v.C)
	assert.Equal(t, Scalar("1.5"), v.D)
}
