package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"success-hq/backend/internal/dashboard"
	"success-hq/backend/internal/demodata"
)

type fakeRunner struct {
	opts   demodata.RunOptions
	result demodata.Result
}

func (f *fakeRunner) Run(_ context.Context, opts demodata.RunOptions) demodata.Result {
	f.opts = opts
	return f.result
}

type fakeDashboard struct {
	overview dashboard.Overview
	card     any
	err      error
}

func (f *fakeDashboard) Overview(_ context.Context, customer string) (dashboard.Overview, error) {
	if f.err != nil {
		return dashboard.Overview{}, f.err
	}
	return f.overview, nil
}

func (f *fakeDashboard) Card(_ context.Context, card, customer string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if card == "nope" {
		return nil, dashboard.ErrUnknownCard
	}
	return f.card, nil
}

func TestCreateDemoData_Success(t *testing.T) {
	runner := &fakeRunner{result: demodata.Result{
		Success: true,
		Message: "demo data created successfully",
		Stats:   demodata.Stats{Users: 5, Companies: 2},
	}}
	h := New(runner, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", strings.NewReader(`{"user_limit":5,"seed":42}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if runner.opts.UserLimit != 5 || runner.opts.Seed != 42 {
		t.Errorf("opts = %+v", runner.opts)
	}
	var res demodata.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !res.Success || res.Stats.Users != 5 {
		t.Errorf("result = %+v", res)
	}
}

func TestCreateDemoData_EmptyBody(t *testing.T) {
	runner := &fakeRunner{result: demodata.Result{Success: true}}
	h := New(runner, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if runner.opts.UserLimit != 0 {
		t.Errorf("limit = %d, want 0", runner.opts.UserLimit)
	}
}

func TestCreateDemoData_InvalidJSON(t *testing.T) {
	h := New(&fakeRunner{}, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", strings.NewReader(`{`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCreateDemoData_NegativeLimit(t *testing.T) {
	h := New(&fakeRunner{}, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", strings.NewReader(`{"user_limit":-1}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCreateDemoData_NoSeedUsers(t *testing.T) {
	runner := &fakeRunner{result: demodata.Result{
		Message:     "demo data creation failed: no seed user records",
		FailedStage: "users",
		Err:         demodata.ErrNoSeedUsers,
	}}
	h := New(runner, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCreateDemoData_PipelineFailure(t *testing.T) {
	runner := &fakeRunner{result: demodata.Result{
		Message:     "demo data creation failed: replace failed",
		FailedStage: "companies",
		Err:         errors.New("replace failed"),
	}}
	h := New(runner, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/v1/demo-data", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	var res demodata.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("body: %v", err)
	}
	if res.FailedStage != "companies" {
		t.Errorf("failed stage = %q", res.FailedStage)
	}
}

func TestOverview(t *testing.T) {
	dash := &fakeDashboard{overview: dashboard.Overview{Customer: "Acme", Purchased: 10, ACV: 24990}}
	h := New(&fakeRunner{}, dash)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/overview?customer=Acme", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var ov dashboard.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatalf("body: %v", err)
	}
	if ov.ACV != 24990 {
		t.Errorf("acv = %d", ov.ACV)
	}
}

func TestOverview_MissingCustomer(t *testing.T) {
	h := New(&fakeRunner{}, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/overview", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCard(t *testing.T) {
	dash := &fakeDashboard{card: dashboard.Series{}}
	h := New(&fakeRunner{}, dash)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/cards/boxes_purchased_cumulative_30d?customer=Acme", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
}

func TestCard_Unknown(t *testing.T) {
	h := New(&fakeRunner{}, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/cards/nope?customer=Acme", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCard_QueryFailure(t *testing.T) {
	dash := &fakeDashboard{err: errors.New("db down")}
	h := New(&fakeRunner{}, dash)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/cards/calls_breakdown_7d?customer=Acme", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := New(&fakeRunner{}, &fakeDashboard{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
