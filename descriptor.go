package typroxy

import (
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/broady/typroxy/routetemplate"
)

// OperationID identifies a declared contract method. Methods with the same
// name declared by different interfaces are distinct operations.
type OperationID struct {
	Declarer string
	Name     string
}

func (id OperationID) String() string {
	return qualify(id.Declarer, id.Name)
}

// DescriptorSet is the compiled, read-only description of every contract.
// It is safe for concurrent use.
type DescriptorSet struct {
	contracts []*ContractDescriptor
	byName    map[string]*ContractDescriptor
}

// Contracts returns the contract descriptors in compilation order.
func (s *DescriptorSet) Contracts() []*ContractDescriptor {
	return slices.Clone(s.contracts)
}

// Contract returns the descriptor of the contract with the given
// qualified name.
func (s *DescriptorSet) Contract(qualifiedName string) (*ContractDescriptor, bool) {
	c, ok := s.byName[qualifiedName]
	return c, ok
}

// Len returns the number of contracts.
func (s *DescriptorSet) Len() int {
	return len(s.contracts)
}

// Lookup returns the descriptor of the contract defined from T.
func Lookup[T any](s *DescriptorSet) (*ContractDescriptor, bool) {
	t := reflect.TypeFor[T]()
	return s.Contract(qualify(t.PkgPath(), t.Name()))
}

// ContractDescriptor describes a compiled contract.
type ContractDescriptor struct {
	name          string
	qualifiedName string
	regionKey     string
	route         string
	operations    []*OperationDescriptor
	byID          map[OperationID]*OperationDescriptor
}

func (c *ContractDescriptor) Name() string          { return c.name }
func (c *ContractDescriptor) QualifiedName() string { return c.qualifiedName }
func (c *ContractDescriptor) RegionKey() string     { return c.regionKey }

// Route returns the base route, without a leading separator.
func (c *ContractDescriptor) Route() string { return c.route }

// Operations returns the operations in enumeration order: own methods,
// then ancestor methods, then base contract methods.
func (c *ContractDescriptor) Operations() []*OperationDescriptor {
	return slices.Clone(c.operations)
}

// Operation returns the first operation with the given method name.
func (c *ContractDescriptor) Operation(name string) (*OperationDescriptor, bool) {
	for _, op := range c.operations {
		if op.id.Name == name {
			return op, true
		}
	}
	return nil, false
}

// DeclaredOperation returns the operation for a declared method.
func (c *ContractDescriptor) DeclaredOperation(id OperationID) (*OperationDescriptor, bool) {
	op, ok := c.byID[id]
	return op, ok
}

// OperationDescriptor holds the resolved request metadata of one
// operation.
type OperationDescriptor struct {
	id          OperationID
	contract    string
	verb        Verb
	contentType string
	timeout     time.Duration
	hasTimeout  bool
	headers     map[string]string
	params      []*ModelMetadata

	template              string
	routeTemplate         *routetemplate.Template
	templateParts         []routetemplate.Part
	templateKeys          []string
	templateParameterKeys []string
}

func (o *OperationDescriptor) ID() OperationID { return o.id }
func (o *OperationDescriptor) Name() string    { return o.id.Name }

// Contract returns the qualified name of the owning contract.
func (o *OperationDescriptor) Contract() string { return o.contract }

func (o *OperationDescriptor) Verb() Verb { return o.verb }

// ContentType returns the request content type. Empty means the
// transport default.
func (o *OperationDescriptor) ContentType() string { return o.contentType }

// Timeout returns the per-call timeout and whether one was declared.
func (o *OperationDescriptor) Timeout() (time.Duration, bool) {
	return o.timeout, o.hasTimeout
}

// Headers returns a copy of the declared headers.
func (o *OperationDescriptor) Headers() map[string]string {
	return maps.Clone(o.headers)
}

// Parameters returns a deep copy of the parameter metadata in
// declaration order.
func (o *OperationDescriptor) Parameters() []*ModelMetadata {
	out := make([]*ModelMetadata, len(o.params))
	for i, p := range o.params {
		out[i] = p.Clone()
	}
	return out
}

// Template returns the raw verb marker template.
func (o *OperationDescriptor) Template() string { return o.template }

// RouteTemplate returns a copy of the parsed template, or nil.
func (o *OperationDescriptor) RouteTemplate() *routetemplate.Template {
	return o.routeTemplate.Clone()
}

// TemplateParts returns the parameter parts as reported by the parser.
func (o *OperationDescriptor) TemplateParts() []routetemplate.Part {
	return slices.Clone(o.templateParts)
}

// TemplateKeys returns the literal texts of the template.
func (o *OperationDescriptor) TemplateKeys() []string {
	return slices.Clone(o.templateKeys)
}

// TemplateParameterKeys returns the template parameter names in segment
// order, then part order.
func (o *OperationDescriptor) TemplateParameterKeys() []string {
	return slices.Clone(o.templateParameterKeys)
}

// HasTemplateParameterKeys reports whether the template has parameters.
func (o *OperationDescriptor) HasTemplateParameterKeys() bool {
	return len(o.templateParameterKeys) > 0
}

// setBuilder accumulates contract descriptors during compilation. Nothing
// it holds is reachable by callers until publish.
type setBuilder struct {
	contracts []*ContractDescriptor
	byName    map[string]*ContractDescriptor
}

func newSetBuilder(n int) *setBuilder {
	return &setBuilder{
		contracts: make([]*ContractDescriptor, 0, n),
		byName:    make(map[string]*ContractDescriptor, n),
	}
}

func (b *setBuilder) add(c *ContractDescriptor) error {
	if _, exists := b.byName[c.qualifiedName]; exists {
		return NewError(CodeInvalidContract, "contract is listed more than once").at(c.qualifiedName, "")
	}
	b.contracts = append(b.contracts, c)
	b.byName[c.qualifiedName] = c
	return nil
}

func (b *setBuilder) publish() *DescriptorSet {
	set := &DescriptorSet{contracts: b.contracts, byName: b.byName}
	b.contracts, b.byName = nil, nil
	return set
}

func newContractDescriptor(name, qualifiedName, regionKey, route string) *ContractDescriptor {
	return &ContractDescriptor{
		name:          name,
		qualifiedName: qualifiedName,
		regionKey:     regionKey,
		route:         route,
		byID:          make(map[OperationID]*OperationDescriptor),
	}
}

func (c *ContractDescriptor) addOperation(op *OperationDescriptor) error {
	if _, exists := c.byID[op.id]; exists {
		return Errorf(CodeInvalidContract, "operation %s is enumerated more than once", op.id).
			at(c.qualifiedName, op.id.Name)
	}
	c.operations = append(c.operations, op)
	c.byID[op.id] = op
	return nil
}
