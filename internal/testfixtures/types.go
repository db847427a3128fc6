// Package testfixtures provides contract types used by the compiler tests.
package testfixtures

import (
	"context"
	"mime/multipart"
	"time"
)

// SampleModel is a composite request and response model.
type SampleModel struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Count   int32     `json:"count,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Created time.Time `json:"created"`
	Secret  string    `json:"-"`
}

// ListParams is a composite query model.
type ListParams struct {
	Region *string `json:"region"`
	Limit  int32   `json:"limit"`
	Offset int32   `json:"offset"`
}

// UploadForm is a composite model with a nested file upload.
type UploadForm struct {
	Title      string                `json:"title"`
	Attachment *multipart.FileHeader `json:"attachment"`
}

// Envelope nests an upload form one level deeper.
type Envelope struct {
	Form UploadForm `json:"form"`
	Note string     `json:"note"`
}

// Node is a recursive model.
type Node struct {
	Value    string  `json:"value"`
	Children []*Node `json:"children"`
}

// Root is the base contract every service contract embeds.
type Root interface {
	Ping(ctx context.Context) error
}

// Auditable is an ancestor contract.
type Auditable interface {
	Audit(ctx context.Context, id string) error
}

// Archivable extends Auditable.
type Archivable interface {
	Auditable
	Archive(ctx context.Context, id string) error
}

// GuidelineAPI is a contract exercising every annotation.
type GuidelineAPI interface {
	Root
	Archivable

	List(ctx context.Context, params ListParams) ([]SampleModel, error)
	Find(ctx context.Context, id string) (*SampleModel, error)
	Create(ctx context.Context, model SampleModel) (*SampleModel, error)
	Replace(ctx context.Context, id string, model SampleModel) error
	Remove(ctx context.Context, id int64) error
	Upload(ctx context.Context, file *multipart.FileHeader) error
	Submit(ctx context.Context, form Envelope) error
}

// PutAPI holds PUT operations with path keys.
type PutAPI interface {
	Update(ctx context.Context, id string, model SampleModel) error
	Rekey(ctx context.Context, key string, model SampleModel) error
	Move(ctx context.Context, id SampleModel, target string) error
	Short(ctx context.Context) error
}

// Repository is a contract whose name carries no API suffix.
type Repository interface {
	Fetch(ctx context.Context, id int64) (*SampleModel, error)
	Tree(ctx context.Context, root Node) error
}
