package typroxy

import (
	"fmt"
	"io"
	"iter"
)

// Parameter is one declared parameter of a contract method.
type Parameter struct {
	Name string

	// Type is the declared type: a reflect.Type for contracts built with
	// Define, a go/types Type for contracts loaded from source.
	Type fmt.Stringer

	// FromBody marks the parameter as bound from the request body.
	FromBody bool

	// Position is the index among the method's request parameters.
	Position int
}

// FormFile is implemented by file upload values. Parameters of a type
// implementing FormFile, or *multipart.FileHeader, or slices of either,
// are file uploads.
type FormFile interface {
	FileName() string
	Open() (io.ReadCloser, error)
}

// ModelMetadata describes how a parameter binds to a request.
//
// Providers and descriptors hand out copies; modifying one does not
// affect the provider's cache or a compiled descriptor set.
type ModelMetadata struct {
	PropertyName string
	ModelType    fmt.Stringer

	// IsSimpleType reports a primitive-like type that can be written into
	// a single URL path segment.
	IsSimpleType bool

	// IsFormFile reports a file upload.
	IsFormFile bool

	// Properties holds the direct nested properties of a composite type.
	Properties []*ModelMetadata
}

// Flatten yields every nested property, depth first. The sequence may be
// iterated any number of times.
func (m *ModelMetadata) Flatten() iter.Seq[*ModelMetadata] {
	return func(yield func(*ModelMetadata) bool) {
		var walk func(props []*ModelMetadata) bool
		walk = func(props []*ModelMetadata) bool {
			for _, p := range props {
				if !yield(p) || !walk(p.Properties) {
					return false
				}
			}
			return true
		}
		walk(m.Properties)
	}
}

// Clone returns a deep copy of m, including its nested properties.
func (m *ModelMetadata) Clone() *ModelMetadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Properties != nil {
		out.Properties = make([]*ModelMetadata, len(m.Properties))
		for i, p := range m.Properties {
			out.Properties[i] = p.Clone()
		}
	}
	return &out
}

// ContainsFormFile reports whether any nested property is a file upload.
func (m *ModelMetadata) ContainsFormFile() bool {
	for p := range m.Flatten() {
		if p.IsFormFile {
			return true
		}
	}
	return false
}

// TypeName returns the display name of the model type.
func (m *ModelMetadata) TypeName() string {
	if m.ModelType == nil {
		return ""
	}
	return m.ModelType.String()
}

// MetadataProvider inspects declared parameter types.
type MetadataProvider interface {
	MetadataForParameter(p Parameter) (*ModelMetadata, error)
}
