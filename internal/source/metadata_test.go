package source

import (
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/typroxy"
)

func newStruct(fields ...*types.Var) *types.Struct {
	tags := make([]string, len(fields))
	for i, f := range fields {
		tags[i] = `json:"` + strings.ToLower(f.Name()) + `"`
	}
	return types.NewStruct(fields, tags)
}

func field(name string, t types.Type) *types.Var {
	return types.NewField(0, nil, name, t, false)
}

func TestTypesMetadata(t *testing.T) {
	pkg := types.NewPackage("mime/multipart", "multipart")
	fileHeader := types.NewNamed(types.NewTypeName(0, pkg, "FileHeader", nil), types.NewStruct(nil, nil), nil)

	svc := types.NewPackage("example.com/svc", "svc")
	order := types.NewNamed(types.NewTypeName(0, svc, "Order", nil), newStruct(
		field("ID", types.Typ[types.String]),
		field("Total", types.Typ[types.Int64]),
	), nil)
	upload := types.NewNamed(types.NewTypeName(0, svc, "Upload", nil), newStruct(
		field("Title", types.Typ[types.String]),
		field("File", types.NewPointer(fileHeader)),
	), nil)

	p := NewTypesMetadataProvider()
	tests := []struct {
		name         string
		typ          types.Type
		wantSimple   bool
		wantFile     bool
		wantContains bool
		wantProps    []string
	}{
		{name: "string", typ: types.Typ[types.String], wantSimple: true},
		{name: "pointer to int", typ: types.NewPointer(types.Typ[types.Int32]), wantSimple: true},
		{name: "file header", typ: types.NewPointer(fileHeader), wantFile: true},
		{name: "file header slice", typ: types.NewSlice(types.NewPointer(fileHeader)), wantFile: true},
		{name: "struct", typ: order, wantProps: []string{"id", "total"}},
		{name: "struct with file", typ: upload, wantContains: true, wantProps: []string{"title", "file"}},
		{name: "slice of structs", typ: types.NewSlice(order), wantProps: []string{"id", "total"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := p.MetadataForParameter(typroxy.Parameter{Name: "p", Type: tt.typ})
			require.NoError(t, err)
			assert.Equal(t, "p", md.PropertyName)
			assert.Equal(t, tt.wantSimple, md.IsSimpleType)
			assert.Equal(t, tt.wantFile, md.IsFormFile)
			assert.Equal(t, tt.wantContains, md.ContainsFormFile())

			var props []string
			for prop := range md.Flatten() {
				props = append(props, prop.PropertyName)
			}
			assert.Equal(t, tt.wantProps, props)
		})
	}
}

func TestTypesMetadata_ForeignType(t *testing.T) {
	_, err := NewTypesMetadataProvider().MetadataForParameter(typroxy.Parameter{Name: "x"})
	require.Error(t, err)
}

func TestTypesMetadata_ReturnsCopies(t *testing.T) {
	svc := types.NewPackage("example.com/svc", "svc")
	order := types.NewNamed(types.NewTypeName(0, svc, "Order", nil), newStruct(
		field("ID", types.Typ[types.String]),
	), nil)

	p := NewTypesMetadataProvider()
	first, err := p.MetadataForParameter(typroxy.Parameter{Name: "a", Type: order})
	require.NoError(t, err)
	first.Properties[0].PropertyName = "changed"
	first.Properties = nil

	second, err := p.MetadataForParameter(typroxy.Parameter{Name: "b", Type: order})
	require.NoError(t, err)
	require.Len(t, second.Properties, 1)
	assert.Equal(t, "id", second.Properties[0].PropertyName)
	assert.Equal(t, 1, p.cache.Len())
}
