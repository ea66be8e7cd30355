// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bom-reconcile/internal/columns"
	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

type fakeDuro struct {
	configured bool
	status     int
	body       []byte
	err        error
	asm        *duro.Assembly
	fetchErr   error

	lastBody []byte
	lastCPN  string
}

func (f *fakeDuro) Configured() bool { return f.configured }

func (f *fakeDuro) Do(_ context.Context, body []byte) (int, []byte, error) {
	f.lastBody = body
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.status, f.body, nil
}

func (f *fakeDuro) FetchBOM(_ context.Context, cpn string) (*duro.Assembly, error) {
	f.lastCPN = cpn
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.asm, nil
}

func newTestServer(d Duro) http.Handler {
	return New(types.ServerConfig{Addr: ":0"}, types.SheetConfig{}, d, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(nil)
	body := `{"primary":[{"part_number":"100-00001","quantity":"1"}],"secondary":[{"part_number":"100-00001","quantity":"2"}]}`
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/compare", "application/json", strings.NewReader(body)).Code)

	rec := do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bom_reconcile_")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/api/compare", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCompareJSON(t *testing.T) {
	req := CompareRequest{
		Primary: []types.BomLineEntry{
			{ItemNumber: "1", PartNumber: "800-00761", Description: "Bracket", Quantity: "2"},
			{ItemNumber: "2", PartNumber: "453-00516-02", Description: "Hex Nut", Quantity: "4"},
			{ItemNumber: "3", PartNumber: "406-00043", Description: "Washer", Quantity: "1"},
		},
		Secondary: []types.BomLineEntry{
			{ItemNumber: "1", PartNumber: "800-00761-00", Description: "Bracket", Quantity: "2"},
			{ItemNumber: "2", PartNumber: "453-00516-02-02", Description: "Hex Nut", Quantity: "3"},
			{ItemNumber: "9", PartNumber: "900-00001-00", Description: "Spacer", Quantity: "1"},
		},
	}

	tests := []struct {
		name       string
		ignored    []types.AnnotationKey
		search     string
		wantQty    int
		wantOnlyP  int
		wantIgnore int
		wantMiss   int
	}{
		{name: "plain", wantQty: 1, wantOnlyP: 1, wantMiss: 2},
		{
			name:       "ignored quantity",
			ignored:    []types.AnnotationKey{{PartNumber: "453-00516-02", Kind: types.IssueQuantity}},
			wantQty:    0,
			wantOnlyP:  1,
			wantIgnore: 1,
			wantMiss:   2,
		},
		{name: "search narrows categories only", search: "406", wantQty: 1, wantOnlyP: 1, wantMiss: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := req
			r.Ignored = tt.ignored
			r.Search = tt.search
			body, err := json.Marshal(r)
			require.NoError(t, err)

			rec := do(t, newTestServer(nil), http.MethodPost, "/api/compare", "application/json", bytes.NewReader(body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			resp := decode[CompareResponse](t, rec)
			assert.Equal(t, 4, resp.Summary.TotalParts)
			assert.Equal(t, 1, resp.Summary.MatchingParts)
			assert.Equal(t, tt.wantQty, resp.Summary.QuantityIssues)
			assert.Equal(t, tt.wantOnlyP, resp.Summary.InPrimaryOnly)
			assert.Equal(t, 1, resp.Summary.InSecondaryOnly)
			assert.Len(t, resp.Summary.Results, 4)
			assert.Len(t, resp.Categories.Ignored, tt.wantIgnore)
			assert.Len(t, resp.Categories.Missing, tt.wantMiss)
		})
	}
}

func TestCompareJSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "malformed", body: `{"primary":`, wantCode: http.StatusBadRequest, wantErr: "Invalid request body"},
		{
			name:     "ignored key without part number",
			body:     `{"primary":[],"secondary":[],"ignored":[{"kind":"quantity"}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "PartNumber",
		},
		{
			name:     "unknown ignored kind",
			body:     `{"primary":[],"secondary":[],"ignored":[{"part_number":"1","kind":"colour"}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  `unknown issue kind "colour"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(nil), http.MethodPost, "/api/compare", "application/json", strings.NewReader(tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decode[map[string]string](t, rec)
			assert.Contains(t, resp["error"], tt.wantErr)
		})
	}
}

func TestCompareJSONSkipsBlankPartNumbers(t *testing.T) {
	body := `{"primary":[{"quantity":"1"},{"part_number":"100-00001","quantity":"2"}],"secondary":[{"part_number":" ","quantity":"5"},{"part_number":"100-00001","quantity":"2"}]}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/compare", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[CompareResponse](t, rec)
	assert.Equal(t, 1, resp.Summary.TotalParts)
	assert.Equal(t, 1, resp.Summary.MatchingParts)
}

// The first DURO data row is the assembly itself.
const (
	primaryCSV   = "ITEM NO.,PART NUMBER,DESCRIPTION,QTY.\n1,800-00761,Bracket,2\n2,453-00516-02,Hex Nut,4\n"
	secondaryCSV = "Item Number,CPN,Description,Quantity\n,900-00100-00,Frame Assy,1\n1,800-00761-00,Bracket,2\n2,453-00516-02-02,Hex Nut,4\n3,900-00001-00,Spacer,1\n"
)

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, files []upload, values map[string][]string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.content)
		require.NoError(t, err)
	}
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestCompareUpload(t *testing.T) {
	tests := []struct {
		name     string
		files    []upload
		values   map[string][]string
		wantCode int
		wantErr  string
		check    func(t *testing.T, resp CompareResponse)
	}{
		{
			name:     "two CSV files",
			files:    []upload{{"primary", "pdm.csv", primaryCSV}, {"secondary", "duro.csv", secondaryCSV}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, resp CompareResponse) {
				assert.Equal(t, 3, resp.Summary.TotalParts)
				assert.Equal(t, 2, resp.Summary.MatchingParts)
				assert.Equal(t, 1, resp.Summary.InSecondaryOnly)
				assert.Zero(t, resp.Summary.QuantityIssues)
			},
		},
		{
			name:     "ignored missing part",
			files:    []upload{{"primary", "pdm.csv", primaryCSV}, {"secondary", "duro.csv", secondaryCSV}},
			values:   map[string][]string{"ignored": {"900-00001-00-missing"}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, resp CompareResponse) {
				assert.Zero(t, resp.Summary.InSecondaryOnly)
				assert.Empty(t, resp.Categories.Missing)
				require.Len(t, resp.Categories.Ignored, 1)
				assert.Equal(t, "900-00001-00", resp.Categories.Ignored[0].PartNumber)
			},
		},
		{
			name:     "bad ignored key",
			files:    []upload{{"primary", "pdm.csv", primaryCSV}, {"secondary", "duro.csv", secondaryCSV}},
			values:   map[string][]string{"ignored": {"900-00001-00-colour"}},
			wantCode: http.StatusBadRequest,
			wantErr:  "unknown issue kind",
		},
		{
			name:     "missing secondary",
			files:    []upload{{"primary", "pdm.csv", primaryCSV}},
			wantCode: http.StatusBadRequest,
			wantErr:  "secondary - file is required",
		},
		{
			name:     "unsupported format",
			files:    []upload{{"primary", "pdm.pdf", primaryCSV}, {"secondary", "duro.csv", secondaryCSV}},
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "unsupported file format",
		},
		{
			name:     "no part number column",
			files:    []upload{{"primary", "pdm.csv", "Foo,Bar\n1,2\n"}, {"secondary", "duro.csv", secondaryCSV}},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "no part number column",
		},
		{
			name:     "header only",
			files:    []upload{{"primary", "pdm.csv", "PART NUMBER,QTY.\n"}, {"secondary", "duro.csv", secondaryCSV}},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "has no data rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, body := multipartBody(t, tt.files, tt.values)
			rec := do(t, newTestServer(nil), http.MethodPost, "/api/compare/upload", ct, body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.wantErr)
				return
			}
			tt.check(t, decode[CompareResponse](t, rec))
		})
	}
}

func TestCompareUploadTooLarge(t *testing.T) {
	h := New(types.ServerConfig{Addr: ":0", MaxUploadBytes: 64}, types.SheetConfig{}, nil, nil).Handler()
	ct, body := multipartBody(t, []upload{{"primary", "pdm.csv", strings.Repeat(primaryCSV, 10)}}, nil)
	rec := do(t, h, http.MethodPost, "/api/compare/upload", ct, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCompareUploadAssembly(t *testing.T) {
	asm := &duro.Assembly{
		Component: duro.Component{ID: "a-1", Name: "Frame", CPN: duro.CPN{DisplayValue: "900-00100"}},
		Children: []duro.Child{
			{ItemNumber: "1", Quantity: "2", Component: duro.Component{ID: "p-1", Name: "Bracket", CPN: duro.CPN{DisplayValue: "800-00761-00"}}},
			{ItemNumber: "5", Quantity: "4", Component: duro.Component{ID: "p-2", Name: "Hex Nut", CPN: duro.CPN{DisplayValue: "453-00516-02-02"}}},
		},
	}

	tests := []struct {
		name     string
		fake     *fakeDuro
		wantCode int
	}{
		{name: "fetched", fake: &fakeDuro{configured: true, asm: asm}, wantCode: http.StatusOK},
		{name: "not configured", fake: &fakeDuro{}, wantCode: http.StatusInternalServerError},
		{
			name:     "not found",
			fake:     &fakeDuro{configured: true, fetchErr: fmt.Errorf("searching: %w", duro.ErrAssemblyNotFound)},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "upstream failure",
			fake:     &fakeDuro{configured: true, fetchErr: &duro.StatusError{StatusCode: http.StatusServiceUnavailable}},
			wantCode: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, body := multipartBody(t,
				[]upload{{"primary", "pdm.csv", primaryCSV}},
				map[string][]string{"assembly": {" 900-00100 "}},
			)
			rec := do(t, newTestServer(tt.fake), http.MethodPost, "/api/compare/upload", ct, body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Equal(t, "900-00100", tt.fake.lastCPN)
			resp := decode[CompareResponse](t, rec)
			assert.Equal(t, 2, resp.Summary.TotalParts)
			assert.Equal(t, 1, resp.Summary.MatchingParts)
			assert.Equal(t, 1, resp.Summary.ItemNumberIssues)
		})
	}
}

func TestDuroProxy(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeDuro
		body     string
		wantCode int
		wantJSON string
	}{
		{
			name:     "not configured",
			fake:     &fakeDuro{},
			body:     `{"query":"{ components { id } }"}`,
			wantCode: http.StatusInternalServerError,
			wantJSON: `{"error":"Server Configuration Error","message":"Missing API configuration"}`,
		},
		{
			name:     "malformed body",
			fake:     &fakeDuro{configured: true},
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing query",
			fake:     &fakeDuro{configured: true},
			body:     `{"query":"  "}`,
			wantCode: http.StatusBadRequest,
			wantJSON: `{"error":"Query is required"}`,
		},
		{
			name:     "transport error",
			fake:     &fakeDuro{configured: true, err: errors.New("dial tcp: refused")},
			body:     `{"query":"{ x }"}`,
			wantCode: http.StatusInternalServerError,
			wantJSON: `{"error":"Internal Server Error","message":"dial tcp: refused"}`,
		},
		{
			name:     "upstream JSON error",
			fake:     &fakeDuro{configured: true, status: http.StatusUnauthorized, body: []byte(`{"message":"bad token"}`)},
			body:     `{"query":"{ x }"}`,
			wantCode: http.StatusUnauthorized,
			wantJSON: `{"error":"Upstream API Error: 401 Unauthorized","details":{"message":"bad token"}}`,
		},
		{
			name:     "upstream text error",
			fake:     &fakeDuro{configured: true, status: http.StatusBadGateway, body: []byte("gateway down")},
			body:     `{"query":"{ x }"}`,
			wantCode: http.StatusBadGateway,
			wantJSON: `{"error":"Upstream API Error: 502 Bad Gateway","details":"gateway down"}`,
		},
		{
			name:     "success",
			fake:     &fakeDuro{configured: true, status: http.StatusOK, body: []byte(`{"data":{"x":1}}`)},
			body:     `{"query":"{ x }","variables":{"ignored":true}}`,
			wantCode: http.StatusOK,
			wantJSON: `{"data":{"x":1}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(tt.fake), http.MethodPost, "/api/duro", "application/json", strings.NewReader(tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantJSON != "" {
				assert.JSONEq(t, tt.wantJSON, rec.Body.String())
			}
			if tt.name == "success" {
				assert.JSONEq(t, `{"query":"{ x }"}`, string(tt.fake.lastBody))
			}
		})
	}
}

func TestDuroProxyNilClient(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/duro", "application/json", strings.NewReader(`{"query":"{ x }"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &ValidationError{Field: "primary", Message: "file is required"}, want: http.StatusBadRequest},
		{name: "format", err: fmt.Errorf("reading x: %w", sheet.ErrUnsupportedFormat), want: http.StatusUnsupportedMediaType},
		{name: "column", err: fmt.Errorf("mapping: %w", &columns.ColumnResolutionError{Field: columns.FieldPartNumber, Source: types.SourcePrimary}), want: http.StatusUnprocessableEntity},
		{name: "empty", err: &extract.EmptySourceError{Source: "a.csv", Kind: types.SourcePrimary}, want: http.StatusUnprocessableEntity},
		{
			name: "assembly not found",
			err:  &extract.EmptySourceError{Source: "900", Kind: types.SourceSecondary, Err: duro.ErrAssemblyNotFound},
			want: http.StatusNotFound,
		},
		{name: "upstream", err: &duro.StatusError{StatusCode: http.StatusServiceUnavailable}, want: http.StatusBadGateway},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestRunShutdown(t *testing.T) {
	s := New(types.ServerConfig{Addr: "127.0.0.1:0"}, types.SheetConfig{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
