package source

import (
	"fmt"
	"go/types"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/broady/typroxy"
)

const metadataCacheSize = 512

// TypesMetadataProvider derives parameter metadata from go/types. It
// applies the rules of typroxy.ReflectMetadataProvider to source types:
// *multipart.FileHeader, types with FileName and Open methods, and
// slices of either are file uploads; basic types and text marshalers are
// simple.
type TypesMetadataProvider struct {
	cache *lru.Cache[string, *typroxy.ModelMetadata]
}

// NewTypesMetadataProvider returns a provider caching up to 512 types.
func NewTypesMetadataProvider() *TypesMetadataProvider {
	cache, err := lru.New[string, *typroxy.ModelMetadata](metadataCacheSize)
	if err != nil {
		panic(err)
	}
	return &TypesMetadataProvider{cache: cache}
}

// MetadataForParameter implements typroxy.MetadataProvider.
func (p *TypesMetadataProvider) MetadataForParameter(param typroxy.Parameter) (*typroxy.ModelMetadata, error) {
	t, ok := param.Type.(types.Type)
	if !ok || t == nil {
		return nil, fmt.Errorf("parameter %s: expected a go/types type, got %T", param.Name, param.Type)
	}

	key := types.TypeString(t, nil)
	md, ok := p.cache.Get(key)
	if !ok {
		md = typesMetadata(t, "", make(map[types.Type]bool))
		p.cache.Add(key, md)
	}

	out := md.Clone()
	out.PropertyName = param.Name
	return out, nil
}

func typesMetadata(t types.Type, name string, visiting map[types.Type]bool) *typroxy.ModelMetadata {
	md := &typroxy.ModelMetadata{PropertyName: name, ModelType: t}

	base := types.Unalias(t)
	for {
		ptr, ok := base.(*types.Pointer)
		if !ok {
			break
		}
		base = types.Unalias(ptr.Elem())
	}

	switch {
	case isTypesFormFile(base):
		md.IsFormFile = true
		return md
	case isTypesSimple(base):
		md.IsSimpleType = true
		return md
	}

	if visiting[base] {
		return md
	}
	visiting[base] = true
	defer delete(visiting, base)

	switch u := base.Underlying().(type) {
	case *types.Struct:
		for i := range u.NumFields() {
			field := u.Field(i)
			if !field.Exported() {
				continue
			}
			fieldName, skip := jsonName(u.Tag(i), field.Name())
			if skip {
				continue
			}
			child := typesMetadata(field.Type(), fieldName, visiting)
			if field.Embedded() && child.Properties != nil {
				md.Properties = append(md.Properties, child.Properties...)
				continue
			}
			md.Properties = append(md.Properties, child)
		}
	case *types.Slice:
		md.Properties = elemProperties(u.Elem(), name, visiting)
	case *types.Array:
		md.Properties = elemProperties(u.Elem(), name, visiting)
	case *types.Map:
		md.Properties = elemProperties(u.Elem(), name, visiting)
	}
	return md
}

func elemProperties(elem types.Type, name string, visiting map[types.Type]bool) []*typroxy.ModelMetadata {
	md := typesMetadata(elem, name, visiting)
	if md.IsFormFile {
		return []*typroxy.ModelMetadata{md}
	}
	return md.Properties
}

func isTypesFormFile(t types.Type) bool {
	if isFileType(t) {
		return true
	}
	var elem types.Type
	switch u := t.Underlying().(type) {
	case *types.Slice:
		elem = u.Elem()
	case *types.Array:
		elem = u.Elem()
	default:
		return false
	}
	for {
		ptr, ok := types.Unalias(elem).(*types.Pointer)
		if !ok {
			break
		}
		elem = ptr.Elem()
	}
	return isFileType(types.Unalias(elem))
}

func isFileType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	if obj.Pkg() != nil && obj.Pkg().Path() == "mime/multipart" && obj.Name() == "FileHeader" {
		return true
	}
	return hasMethod(named, "FileName", 0, 1) && hasMethod(named, "Open", 0, 2)
}

func isTypesSimple(t types.Type) bool {
	if b, ok := t.Underlying().(*types.Basic); ok {
		info := b.Info()
		return info&(types.IsBoolean|types.IsString|types.IsInteger|types.IsFloat) != 0 &&
			b.Kind() != types.UnsafePointer
	}
	if _, ok := t.Underlying().(*types.Interface); ok {
		return false
	}
	named, ok := t.(*types.Named)
	return ok && hasMethod(named, "MarshalText", 0, 2)
}

// hasMethod reports whether the method set of *named has a method with
// the given name and arity.
func hasMethod(named *types.Named, name string, params, results int) bool {
	mset := types.NewMethodSet(types.NewPointer(named))
	sel := mset.Lookup(named.Obj().Pkg(), name)
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	return ok && sig.Params().Len() == params && sig.Results().Len() == results
}

// jsonName returns the property name for a struct field from its json
// tag, and whether the field is excluded.
func jsonName(tag, fieldName string) (string, bool) {
	value := reflect.StructTag(tag).Get("json")
	if value == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(value, ",")
	if name == "" {
		name = fieldName
	}
	return name, false
}
