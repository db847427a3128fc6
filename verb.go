package typroxy

// Verb is the HTTP verb an operation is dispatched with.
type Verb int

const (
	VerbGet Verb = iota
	VerbPost
	VerbPut
	VerbDelete
)

// String returns the HTTP method name.
func (v Verb) String() string {
	switch v {
	case VerbGet:
		return "GET"
	case VerbPost:
		return "POST"
	case VerbPut:
		return "PUT"
	case VerbDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

func (v Verb) valid() bool {
	return v >= VerbGet && v <= VerbDelete
}

// Content types understood by the dispatch layer.
const (
	ContentTypeJSON              = "application/json"
	ContentTypeXML               = "application/xml"
	ContentTypeFormURLEncoded    = "application/x-www-form-urlencoded"
	ContentTypeMultipartFormData = "multipart/form-data"
)

// VerbMarker selects the HTTP verb of an operation, an optional URL
// template relative to the contract route, and, for POST and PUT, the
// request content type. Build markers with Get, Post, Put and Delete.
type VerbMarker struct {
	Verb        Verb
	Template    string
	ContentType string `validate:"omitempty,mediatype"`
}

// Get marks an operation as HTTP GET.
func Get(template string) *VerbMarker {
	return &VerbMarker{Verb: VerbGet, Template: template}
}

// Post marks an operation as HTTP POST. An empty content type means JSON.
func Post(template, contentType string) *VerbMarker {
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	return &VerbMarker{Verb: VerbPost, Template: template, ContentType: contentType}
}

// Put marks an operation as HTTP PUT. An empty content type means JSON.
//
// PUT operations with template parameters bind them positionally: the
// i-th template parameter must be the i-th method parameter, by name, and
// must be a simple type.
func Put(template, contentType string) *VerbMarker {
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	return &VerbMarker{Verb: VerbPut, Template: template, ContentType: contentType}
}

// Delete marks an operation as HTTP DELETE.
func Delete(template string) *VerbMarker {
	return &VerbMarker{Verb: VerbDelete, Template: template}
}

// carriesContentType reports whether the marker's content type applies.
func (m *VerbMarker) carriesContentType() bool {
	return m.Verb == VerbPost || m.Verb == VerbPut
}
