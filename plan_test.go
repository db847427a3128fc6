package typroxy_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/typroxy"
	"github.com/broady/typroxy/internal/testfixtures"
	"github.com/broady/typroxy/testutil"
)

func guidelineDescriptor(t *testing.T) *typroxy.ContractDescriptor {
	t.Helper()
	return testutil.MustContract(t, compileGuideline(t), "GuidelineAPI")
}

func mustPlan(t *testing.T, cd *typroxy.ContractDescriptor, op string, args ...any) *typroxy.RequestPlan {
	t.Helper()
	plan, err := cd.Plan(op, args...)
	if err != nil {
		t.Fatalf("Plan(%s): %v", op, err)
	}
	return plan
}

func TestPlan_GetWithPathParameter(t *testing.T) {
	plan := mustPlan(t, guidelineDescriptor(t), "Find", "a b")

	if plan.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", plan.Method)
	}
	if plan.Path != "api/Guideline/a%20b" {
		t.Errorf("expected escaped path, got %q", plan.Path)
	}
	if len(plan.Query) != 0 || len(plan.Body) != 0 {
		t.Errorf("expected no query or body, got %v %v", plan.Query, plan.Body)
	}
	if got := plan.Header.Get("X-Trace"); got != "abc123" {
		t.Errorf("expected X-Trace abc123, got %q", got)
	}
	if got := plan.Header.Get("Accept"); got != "text/plain" {
		t.Errorf("expected Accept text/plain, got %q", got)
	}
	if plan.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", plan.Timeout)
	}
}

func TestPlan_GetCompositeQuery(t *testing.T) {
	region := "eu"
	plan := mustPlan(t, guidelineDescriptor(t), "List", testfixtures.ListParams{Region: &region, Limit: 10})

	if plan.Path != "api/Guideline/List" {
		t.Errorf("expected operation name path, got %q", plan.Path)
	}
	tests := []struct {
		key  string
		want string
	}{
		{"region", "eu"},
		{"limit", "10"},
		{"offset", "0"},
	}
	for _, tt := range tests {
		if got := plan.Query.Get(tt.key); got != tt.want {
			t.Errorf("query %s: expected %q, got %q", tt.key, tt.want, got)
		}
	}
	if plan.Timeout != 0 {
		t.Errorf("expected no timeout, got %v", plan.Timeout)
	}
}

func TestPlan_PutBindsKeysPositionally(t *testing.T) {
	model := testfixtures.SampleModel{ID: "42", Name: "answer"}
	plan := mustPlan(t, guidelineDescriptor(t), "Replace", "42", model)

	if plan.Method != http.MethodPut || plan.Path != "api/Guideline/42" {
		t.Errorf("expected PUT api/Guideline/42, got %s %s", plan.Method, plan.Path)
	}
	if plan.ContentType != typroxy.ContentTypeJSON {
		t.Errorf("expected JSON content type, got %q", plan.ContentType)
	}
	if diff := cmp.Diff(map[string]any{"model": model}, plan.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_PostWithoutTemplate(t *testing.T) {
	model := testfixtures.SampleModel{Name: "new"}
	plan := mustPlan(t, guidelineDescriptor(t), "Create", model)

	if plan.Method != http.MethodPost || plan.Path != "api/Guideline/Create" {
		t.Errorf("expected POST api/Guideline/Create, got %s %s", plan.Method, plan.Path)
	}
	if plan.ContentType != typroxy.ContentTypeXML {
		t.Errorf("expected XML content type, got %q", plan.ContentType)
	}
	if diff := cmp.Diff(map[string]any{"model": model}, plan.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_DeleteBindsByName(t *testing.T) {
	plan := mustPlan(t, guidelineDescriptor(t), "Remove", int64(7))

	if plan.Method != http.MethodDelete || plan.Path != "api/Guideline/7" {
		t.Errorf("expected DELETE api/Guideline/7, got %s %s", plan.Method, plan.Path)
	}
	if len(plan.Query) != 0 {
		t.Errorf("expected bound key to stay out of the query, got %v", plan.Query)
	}
}

func TestPlan_BaseOperation(t *testing.T) {
	plan := mustPlan(t, guidelineDescriptor(t), "Ping")
	if plan.Path != "api/Guideline/Ping" {
		t.Errorf("expected api/Guideline/Ping, got %q", plan.Path)
	}
}

func TestPlan_Errors(t *testing.T) {
	cd := guidelineDescriptor(t)

	_, err := cd.Plan("Missing")
	testutil.AssertCode(t, err, typroxy.CodeUnknownOperation)

	_, err = cd.Plan("Find")
	testutil.AssertCode(t, err, typroxy.CodeInvalidArgument)

	_, err = cd.Plan("Find", struct{ A int }{1})
	if e := testutil.AssertCode(t, err, typroxy.CodeInvalidArgument); e.Parameter != "id" {
		t.Errorf("expected parameter id, got %q", e.Parameter)
	}
}

func TestPlan_TemplateExpansion(t *testing.T) {
	route := typroxy.Route{RegionKey: "repo", Template: "repo"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"missing optional segment", "items/{id}/{page?}", "repo/Repository/items/5"},
		{"default value", "items/{id}/{view=full}", "repo/Repository/items/5/full"},
		{"missing optional extension", "files/{id}.{ext?}", "repo/Repository/files/5"},
		{"literal after parameter", "items/{id}-detail", "repo/Repository/items/5-detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := typroxy.Define[testfixtures.Repository](route,
				typroxy.Op("Fetch", typroxy.Get(tt.template), typroxy.Params("id")),
			)
			cd := testutil.MustContract(t, testutil.NewCompilation(contract).MustCompile(t), "Repository")
			plan := mustPlan(t, cd, "Fetch", int64(5))
			if plan.Path != tt.want {
				t.Errorf("expected %q, got %q", tt.want, plan.Path)
			}
		})
	}
}

func TestPlan_UnboundCatchAll(t *testing.T) {
	contract := typroxy.Define[testfixtures.Repository](typroxy.Route{RegionKey: "repo", Template: "repo"},
		typroxy.Op("Fetch", typroxy.Get("{id}/{*rest}"), typroxy.Params("id")),
	)
	cd := testutil.MustContract(t, testutil.NewCompilation(contract).MustCompile(t), "Repository")

	_, err := cd.Plan("Fetch", int64(5))
	if e := testutil.AssertCode(t, err, typroxy.CodeInvalidArgument); e.Parameter != "rest" {
		t.Errorf("expected parameter rest, got %q", e.Parameter)
	}
}
