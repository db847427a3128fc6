package typroxy

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

// Compiler turns contracts into a DescriptorSet. Configure it with the
// With* methods before calling Compile; a Compiler may be reused, and
// every Compile call builds an independent set.
type Compiler struct {
	logger   *slog.Logger
	metadata MetadataProvider
	parser   TemplateParser
	base     *Interface
}

// NewCompiler returns a compiler using reflection metadata and the
// routetemplate parser.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// WithLogger sets a custom logger.
// If not set, slog.Default() will be used.
func (c *Compiler) WithLogger(logger *slog.Logger) *Compiler {
	c.logger = logger
	return c
}

// WithMetadataProvider replaces the parameter metadata provider.
// Default is a ReflectMetadataProvider.
func (c *Compiler) WithMetadataProvider(p MetadataProvider) *Compiler {
	c.metadata = p
	return c
}

// WithTemplateParser replaces the route template parser.
func (c *Compiler) WithTemplateParser(p TemplateParser) *Compiler {
	c.parser = p
	return c
}

// WithBaseContract sets the base contract. Its methods are appended to
// every contract as baseline operations, and it is never enumerated as an
// ancestor.
func (c *Compiler) WithBaseContract(base *Interface) *Compiler {
	c.base = base
	return c
}

// Compile builds the descriptor set for contracts, in order. The first
// contract-definition error aborts compilation; no set is returned then.
func (c *Compiler) Compile(contracts ...*Contract) (*DescriptorSet, error) {
	s := &compilation{
		logger:   c.logger,
		metadata: c.metadata,
		parser:   c.parser,
		base:     c.base,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metadata == nil {
		s.metadata = NewReflectMetadataProvider()
	}
	if s.parser == nil {
		s.parser = DefaultTemplateParser
	}
	if s.base != nil && s.base.err != nil {
		return nil, s.base.err
	}

	b := newSetBuilder(len(contracts))
	operations := 0
	for _, contract := range contracts {
		cd, err := s.compileContract(contract)
		if err != nil {
			return nil, err
		}
		if err := b.add(cd); err != nil {
			return nil, err
		}
		operations += len(cd.operations)
		s.logger.Debug("contract compiled",
			slog.String("contract", cd.qualifiedName),
			slog.String("region", cd.regionKey),
			slog.String("route", cd.route),
			slog.Int("operations", len(cd.operations)))
	}

	set := b.publish()
	s.logger.Info("descriptor set compiled",
		slog.Int("contracts", set.Len()),
		slog.Int("operations", operations))
	return set, nil
}

// compilation holds the collaborators of a single Compile call.
type compilation struct {
	logger   *slog.Logger
	metadata MetadataProvider
	parser   TemplateParser
	base     *Interface
}

// declaredMethod is a method paired with the interface declaring it.
type declaredMethod struct {
	*Method
	declarer string
}

func (s *compilation) compileContract(contract *Contract) (*ContractDescriptor, error) {
	if contract == nil {
		return nil, NewError(CodeInvalidContract, "nil contract")
	}
	if contract.err != nil {
		return nil, contract.err
	}

	name := contract.QualifiedName()
	if contract.Route == nil {
		return nil, NewError(CodeMissingRouteAnnotation, "route annotation required for a contract").at(name, "")
	}
	if err := validate.Struct(contract.Route); err != nil {
		return nil, fromValidation(err).at(name, "")
	}

	cd := newContractDescriptor(contract.Name, name, contract.Route.RegionKey,
		BaseRoute(contract.Name, contract.Route.Template))
	for _, m := range s.enumerate(contract) {
		op, err := s.compileOperation(name, m)
		if err != nil {
			return nil, err
		}
		if err := cd.addOperation(op); err != nil {
			return nil, err
		}
	}
	return cd, nil
}

// enumerate lists the contract's operations: its own methods, then the
// methods each ancestor declares, then the base contract's methods. Methods
// the base contract supplies are enumerated once, as base operations, even
// when the contract or an ancestor embeds the base without declaring it.
func (s *compilation) enumerate(contract *Contract) []declaredMethod {
	name := contract.QualifiedName()
	var baseName string
	if s.base != nil {
		baseName = s.base.QualifiedName()
	}

	var out []declaredMethod
	add := func(m *Method, declarer string, rtype reflect.Type) {
		if s.suppliedByBase(m, declarer, rtype) {
			s.logger.Debug("embedded base method enumerated as base operation",
				slog.String("contract", name),
				slog.String("operation", m.Name),
				slog.String("base", baseName))
			return
		}
		out = append(out, declaredMethod{Method: m, declarer: declarer})
	}
	for _, m := range contract.Methods {
		declarer := m.Declarer
		if declarer == "" {
			declarer = name
		}
		add(m, declarer, contract.rtype)
	}
	for _, anc := range contract.Extends {
		if anc.QualifiedName() == baseName {
			continue
		}
		for _, m := range anc.Methods {
			add(m, anc.QualifiedName(), anc.rtype)
		}
	}
	if s.base != nil {
		for _, m := range s.base.Methods {
			out = append(out, declaredMethod{Method: m, declarer: baseName})
		}
	}
	return out
}

// suppliedByBase reports whether m, found on an interface of type rtype,
// is one of the base contract's methods. Without reflection types the
// method's declarer decides.
func (s *compilation) suppliedByBase(m *Method, declarer string, rtype reflect.Type) bool {
	if s.base == nil {
		return false
	}
	if declarer == s.base.QualifiedName() {
		return true
	}
	if rtype == nil || s.base.rtype == nil || !rtype.Implements(s.base.rtype) {
		return false
	}
	return slices.ContainsFunc(s.base.Methods, func(b *Method) bool { return b.Name == m.Name })
}

func (s *compilation) compileOperation(contract string, m declaredMethod) (*OperationDescriptor, error) {
	op := &OperationDescriptor{
		id:       OperationID{Declarer: m.declarer, Name: m.Name},
		contract: contract,
	}
	fail := func(err *Error) (*OperationDescriptor, error) {
		return nil, err.at(contract, m.Name).WithDetail("declarer", m.declarer)
	}

	multipart := false
	for _, p := range m.Params {
		md, err := s.metadata.MetadataForParameter(p)
		if err != nil {
			return fail(Errorf(CodeMetadataUnavailable, "parameter %q: %w", p.Name, err).param(p.Name))
		}
		if md.IsFormFile {
			multipart = true
			if p.FromBody {
				return fail(Errorf(CodeFormFileBodyConflict,
					"parameter %s %s is a file upload; remove the bind-from-body marker for proper model binding",
					p.Name, typeName(p)).param(p.Name))
			}
		} else if md.ContainsFormFile() {
			multipart = true
		}
		op.params = append(op.params, md)
	}

	if v := m.Verb; v != nil {
		if !v.Verb.valid() {
			return fail(Errorf(CodeInvalidContract, "unknown verb %d", int(v.Verb)))
		}
		if v.carriesContentType() && !multipart {
			if err := validate.Struct(v); err != nil {
				return fail(fromValidation(err))
			}
			op.contentType = v.ContentType
		}
	}
	if multipart {
		op.contentType = ContentTypeMultipartFormData
	}

	if m.HasTimeout {
		op.timeout = m.Timeout
		op.hasTimeout = true
	}

	headers, skipped := parseHeaders(m.Headers)
	op.headers = headers
	for _, entry := range skipped {
		s.logger.Warn("malformed header entry skipped",
			slog.String("contract", contract),
			slog.String("operation", m.Name),
			slog.String("entry", entry))
	}

	if m.Verb == nil {
		op.verb = VerbGet
		return op, nil
	}

	if tpl := m.Verb.Template; strings.TrimSpace(tpl) != "" {
		op.template = tpl
		rt, err := s.parser.Parse(tpl)
		if err != nil {
			return fail(Errorf(CodeInvalidRouteTemplate, "%w", err).WithDetail("template", tpl))
		}
		if rt != nil {
			op.routeTemplate = rt
			op.templateParts = append(op.templateParts, rt.Parameters...)
			for _, seg := range rt.Segments {
				for _, part := range seg.Parts {
					switch {
					case part.IsLiteral:
						op.templateKeys = append(op.templateKeys, part.Text)
					case part.IsParameter:
						op.templateParameterKeys = append(op.templateParameterKeys, part.Name)
					}
				}
			}
		}
	}

	op.verb = m.Verb.Verb
	if op.verb == VerbPut && op.HasTemplateParameterKeys() {
		if err := validatePutKeys(op); err != nil {
			return fail(err)
		}
	}
	return op, nil
}

// validatePutKeys checks that the leading method parameters match the
// template parameters positionally and are simple types.
func validatePutKeys(op *OperationDescriptor) *Error {
	for i, key := range op.templateParameterKeys {
		if i >= len(op.params) || op.params[i].PropertyName != key {
			return Errorf(CodePutKeyMismatch,
				"key parameter %q does not match the method parameter at position %d", key, i).
				param(key)
		}
		if md := op.params[i]; !md.IsSimpleType {
			return Errorf(CodePutKeyNotSimpleType,
				"key parameter %q of type %q must be a simple type for PUT URI key binding", key, md.TypeName()).
				param(key)
		}
	}
	return nil
}

func typeName(p Parameter) string {
	if p.Type == nil {
		return "<nil>"
	}
	return fmt.Sprint(p.Type)
}
