package typroxy

import (
	"encoding"
	"fmt"
	"mime/multipart"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMetadataCacheSize = 512

var (
	formFileType      = reflect.TypeFor[FormFile]()
	fileHeaderType    = reflect.TypeFor[multipart.FileHeader]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// ReflectMetadataProvider derives parameter metadata from reflect.Type
// values. Metadata is computed once per type and cached.
type ReflectMetadataProvider struct {
	cache *lru.Cache[reflect.Type, *ModelMetadata]
}

// NewReflectMetadataProvider returns a provider caching up to 512 types.
func NewReflectMetadataProvider() *ReflectMetadataProvider {
	cache, err := lru.New[reflect.Type, *ModelMetadata](defaultMetadataCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &ReflectMetadataProvider{cache: cache}
}

// MetadataForParameter implements MetadataProvider.
func (p *ReflectMetadataProvider) MetadataForParameter(param Parameter) (*ModelMetadata, error) {
	t, ok := param.Type.(reflect.Type)
	if !ok || t == nil {
		return nil, fmt.Errorf("parameter %s: expected a reflect.Type, got %T", param.Name, param.Type)
	}

	md, ok := p.cache.Get(t)
	if !ok {
		md = reflectMetadata(t, "", make(map[reflect.Type]bool))
		p.cache.Add(t, md)
	}

	out := md.Clone()
	out.PropertyName = param.Name
	return out, nil
}

// reflectMetadata builds metadata for t. visiting holds the composite
// types on the current path; a recursive reference is left unexpanded.
func reflectMetadata(t reflect.Type, name string, visiting map[reflect.Type]bool) *ModelMetadata {
	md := &ModelMetadata{PropertyName: name, ModelType: t}

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	switch {
	case isReflectFormFile(base):
		md.IsFormFile = true
		return md
	case isReflectSimple(base):
		md.IsSimpleType = true
		return md
	}

	if visiting[base] {
		return md
	}
	visiting[base] = true
	defer delete(visiting, base)

	switch base.Kind() {
	case reflect.Struct:
		for i := range base.NumField() {
			field := base.Field(i)
			if !field.IsExported() {
				continue
			}
			fieldName, skip := jsonFieldName(field.Tag.Get("json"), field.Name)
			if skip {
				continue
			}
			child := reflectMetadata(field.Type, fieldName, visiting)
			if field.Anonymous && child.Properties != nil {
				// Promote fields of embedded structs.
				md.Properties = append(md.Properties, child.Properties...)
				continue
			}
			md.Properties = append(md.Properties, child)
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		elem := reflectMetadata(base.Elem(), name, visiting)
		if elem.IsFormFile {
			md.Properties = []*ModelMetadata{elem}
		} else {
			md.Properties = elem.Properties
		}
	}
	return md
}

func isReflectFormFile(t reflect.Type) bool {
	if t == fileHeaderType || t.Implements(formFileType) || reflect.PointerTo(t).Implements(formFileType) {
		return true
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		elem := t.Elem()
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		return elem == fileHeaderType || elem.Implements(formFileType) || reflect.PointerTo(elem).Implements(formFileType)
	}
	return false
}

func isReflectSimple(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return false
	}
	return t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
}

// jsonFieldName returns the property name for a struct field from its
// json tag, and whether the field is excluded.
func jsonFieldName(tag, fieldName string) (string, bool) {
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = fieldName
	}
	return name, false
}
