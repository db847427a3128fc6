package typroxy

import (
	"io"
	"mime/multipart"
	"net/netip"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/broady/typroxy/internal/testfixtures"
)

type upload struct{ name string }

func (u upload) FileName() string             { return u.name }
func (u upload) Open() (io.ReadCloser, error) { return nil, io.EOF }

type Audit struct {
	By string `json:"by"`
	At time.Time
}

type withEmbedded struct {
	Audit
	Title   string            `json:"title"`
	Files   []upload          `json:"files"`
	Lookup  map[string]upload `json:"lookup"`
	private string
}

func metadataFor(t *testing.T, p *ReflectMetadataProvider, name string, typ reflect.Type) *ModelMetadata {
	t.Helper()
	md, err := p.MetadataForParameter(Parameter{Name: name, Type: typ})
	if err != nil {
		t.Fatalf("MetadataForParameter(%s): %v", typ, err)
	}
	if md == nil {
		t.Fatalf("MetadataForParameter(%s) returned nil", typ)
	}
	return md
}

func propertyNames(md *ModelMetadata) []string {
	var names []string
	for p := range md.Flatten() {
		names = append(names, p.PropertyName)
	}
	return names
}

func TestReflectMetadata_Simple(t *testing.T) {
	p := NewReflectMetadataProvider()
	for _, typ := range []reflect.Type{
		reflect.TypeFor[string](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[*int32](),
		reflect.TypeFor[bool](),
		reflect.TypeFor[float64](),
		reflect.TypeFor[time.Time](),
		reflect.TypeFor[netip.Addr](),
	} {
		t.Run(typ.String(), func(t *testing.T) {
			md := metadataFor(t, p, "value", typ)
			if !md.IsSimpleType || md.IsFormFile {
				t.Errorf("expected simple, non-file type, got simple=%v file=%v", md.IsSimpleType, md.IsFormFile)
			}
			if len(md.Properties) != 0 {
				t.Errorf("expected no properties, got %v", propertyNames(md))
			}
			if md.TypeName() != typ.String() {
				t.Errorf("expected type name %s, got %s", typ, md.TypeName())
			}
		})
	}
}

func TestReflectMetadata_FormFiles(t *testing.T) {
	p := NewReflectMetadataProvider()
	for _, typ := range []reflect.Type{
		reflect.TypeFor[*multipart.FileHeader](),
		reflect.TypeFor[[]*multipart.FileHeader](),
		reflect.TypeFor[upload](),
		reflect.TypeFor[*upload](),
		reflect.TypeFor[[]upload](),
	} {
		t.Run(typ.String(), func(t *testing.T) {
			md := metadataFor(t, p, "file", typ)
			if !md.IsFormFile || md.IsSimpleType {
				t.Errorf("expected file upload, got simple=%v file=%v", md.IsSimpleType, md.IsFormFile)
			}
		})
	}
}

func TestReflectMetadata_Composite(t *testing.T) {
	tests := []struct {
		name         string
		typ          reflect.Type
		wantProps    []string
		wantContains bool
	}{
		{
			name:      "struct",
			typ:       reflect.TypeFor[testfixtures.SampleModel](),
			wantProps: []string{"id", "name", "count", "tags", "created"},
		},
		{
			name:         "nested form file",
			typ:          reflect.TypeFor[testfixtures.Envelope](),
			wantProps:    []string{"form", "title", "attachment", "note"},
			wantContains: true,
		},
		{
			name:         "embedded and collections",
			typ:          reflect.TypeFor[withEmbedded](),
			wantProps:    []string{"by", "At", "title", "files", "lookup", "lookup"},
			wantContains: true,
		},
		{
			name:      "recursive",
			typ:       reflect.TypeFor[testfixtures.Node](),
			wantProps: []string{"value", "children"},
		},
	}
	p := NewReflectMetadataProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := metadataFor(t, p, "model", tt.typ)
			if md.IsSimpleType || md.IsFormFile {
				t.Errorf("expected composite, got simple=%v file=%v", md.IsSimpleType, md.IsFormFile)
			}
			if md.PropertyName != "model" {
				t.Errorf("expected property name model, got %s", md.PropertyName)
			}
			if got := propertyNames(md); !slices.Equal(got, tt.wantProps) {
				t.Errorf("expected properties %v, got %v", tt.wantProps, got)
			}
			if got := md.ContainsFormFile(); got != tt.wantContains {
				t.Errorf("ContainsFormFile() = %v, want %v", got, tt.wantContains)
			}
		})
	}
}

func TestReflectMetadata_Cached(t *testing.T) {
	p := NewReflectMetadataProvider()
	typ := reflect.TypeFor[testfixtures.SampleModel]()

	a := metadataFor(t, p, "a", typ)
	b := metadataFor(t, p, "b", typ)
	if a.PropertyName != "a" || b.PropertyName != "b" {
		t.Errorf("expected per-parameter names, got %s and %s", a.PropertyName, b.PropertyName)
	}
	if n := p.cache.Len(); n != 1 {
		t.Errorf("expected one cached type, got %d", n)
	}

	// Callers get copies of the cached tree.
	a.Properties[0].PropertyName = "changed"
	a.Properties = nil
	c := metadataFor(t, p, "c", typ)
	if got := propertyNames(c); len(got) == 0 || got[0] != "id" {
		t.Errorf("expected cached metadata to be unaffected, got %v", got)
	}
}

func TestReflectMetadata_RejectsForeignTypes(t *testing.T) {
	p := NewReflectMetadataProvider()
	if _, err := p.MetadataForParameter(Parameter{Name: "x", Type: nil}); err == nil {
		t.Error("expected error for a parameter without a reflect.Type")
	}
}

func TestFlatten_Restartable(t *testing.T) {
	md := &ModelMetadata{Properties: []*ModelMetadata{
		{PropertyName: "a", Properties: []*ModelMetadata{{PropertyName: "a1"}}},
		{PropertyName: "b"},
	}}

	first := slices.Collect(md.Flatten())
	second := slices.Collect(md.Flatten())
	if len(first) != 3 || !slices.Equal(first, second) {
		t.Errorf("expected two identical walks of 3 properties, got %d and %d", len(first), len(second))
	}

	// Early termination stops the walk.
	var seen int
	for range md.Flatten() {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("expected walk to stop after 1 property, got %d", seen)
	}
}

func TestModelMetadata_Clone(t *testing.T) {
	md := &ModelMetadata{PropertyName: "root", Properties: []*ModelMetadata{
		{PropertyName: "a", Properties: []*ModelMetadata{{PropertyName: "a1", IsFormFile: true}}},
	}}

	c := md.Clone()
	c.PropertyName = "x"
	c.Properties[0].Properties[0].PropertyName = "x1"
	c.Properties[0].Properties[0].IsFormFile = false

	if got := propertyNames(md); !slices.Equal(got, []string{"a", "a1"}) {
		t.Errorf("expected original tree to be unchanged, got %v", got)
	}
	if md.PropertyName != "root" || !md.ContainsFormFile() {
		t.Errorf("expected original root to be unchanged, got %+v", md)
	}
	if (*ModelMetadata)(nil).Clone() != nil {
		t.Error("expected nil clone of nil metadata")
	}
}
