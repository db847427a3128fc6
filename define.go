package typroxy

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"
)

var contextType = reflect.TypeFor[context.Context]()

// ContractOption configures Define, NoRoute and DefineInterface.
type ContractOption func(*contractConfig)

type contractConfig struct {
	extends []*Interface
	ops     map[string]*operationConfig
	opOrder []string
}

func newContractConfig(opts []ContractOption) *contractConfig {
	cfg := &contractConfig{ops: make(map[string]*operationConfig)}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// OperationOption annotates a single method. A *VerbMarker is an
// OperationOption.
type OperationOption interface {
	applyOperation(*operationConfig)
}

type operationConfig struct {
	verb       *VerbMarker
	timeout    time.Duration
	hasTimeout bool
	headers    []string
	params     []string
	fromBody   []string
}

type operationOptionFunc func(*operationConfig)

func (f operationOptionFunc) applyOperation(c *operationConfig) { f(c) }

func (m *VerbMarker) applyOperation(c *operationConfig) { c.verb = m }

// Extends declares ancestor interfaces embedded by the contract. Methods
// an ancestor declares are enumerated after the contract's own methods,
// in the order given.
//
// The base contract need not be listed: the compiler enumerates its
// methods once, after every other operation.
func Extends(ifaces ...*Interface) ContractOption {
	return func(c *contractConfig) {
		c.extends = append(c.extends, ifaces...)
	}
}

// Op annotates the method with the given name. Repeated Op calls for the
// same method accumulate.
func Op(name string, opts ...OperationOption) ContractOption {
	return func(c *contractConfig) {
		oc, ok := c.ops[name]
		if !ok {
			oc = &operationConfig{}
			c.ops[name] = oc
			c.opOrder = append(c.opOrder, name)
		}
		for _, opt := range opts {
			opt.applyOperation(oc)
		}
	}
}

// Timeout sets the per-call timeout of an operation.
func Timeout(d time.Duration) OperationOption {
	return operationOptionFunc(func(c *operationConfig) {
		c.timeout = d
		c.hasTimeout = true
	})
}

// Headers adds "Name: Value" header entries to an operation.
func Headers(headers ...string) OperationOption {
	return operationOptionFunc(func(c *operationConfig) {
		c.headers = append(c.headers, headers...)
	})
}

// Params names the request parameters of a method in declaration order,
// skipping context.Context. Without Params, parameters are named arg0,
// arg1 and so on.
func Params(names ...string) OperationOption {
	return operationOptionFunc(func(c *operationConfig) {
		c.params = names
	})
}

// FromBody marks the named parameters as bound from the request body.
func FromBody(names ...string) OperationOption {
	return operationOptionFunc(func(c *operationConfig) {
		c.fromBody = append(c.fromBody, names...)
	})
}

// Define builds a contract from the interface type T.
func Define[T any](route Route, opts ...ContractOption) *Contract {
	c := newContract(reflect.TypeFor[T](), opts)
	c.Route = &route
	return c
}

// NoRoute builds a contract from T without a route annotation. Compiling
// it fails with CodeMissingRouteAnnotation.
func NoRoute[T any](opts ...ContractOption) *Contract {
	return newContract(reflect.TypeFor[T](), opts)
}

// DefineInterface builds an ancestor or base interface from T. All of T's
// methods, including embedded ones, are declared by T. Extends options are
// ignored.
func DefineInterface[T any](opts ...ContractOption) *Interface {
	t := reflect.TypeFor[T]()
	iface := &Interface{Name: t.Name(), PkgPath: t.PkgPath(), rtype: t}
	if t.Kind() != reflect.Interface {
		iface.err = Errorf(CodeInvalidContract, "%s is not an interface type", t).at(iface.QualifiedName(), "")
		return iface
	}

	methods := make([]reflect.Method, t.NumMethod())
	for i := range methods {
		methods[i] = t.Method(i)
	}
	iface.Methods, iface.err = reflectMethods(methods, iface.QualifiedName(), newContractConfig(opts))
	return iface
}

func newContract(t reflect.Type, opts []ContractOption) *Contract {
	c := &Contract{Name: t.Name(), PkgPath: t.PkgPath(), rtype: t}
	name := c.QualifiedName()
	if t.Kind() != reflect.Interface {
		c.err = Errorf(CodeInvalidContract, "%s is not an interface type", t).at(name, "")
		return c
	}

	cfg := newContractConfig(opts)
	claimed := make(map[string]bool)
	for _, anc := range cfg.extends {
		switch {
		case anc == nil:
			c.err = NewError(CodeInvalidContract, "nil ancestor interface").at(name, "")
			return c
		case anc.err != nil:
			c.err = anc.err
			return c
		case anc.rtype == nil:
			c.err = Errorf(CodeInvalidContract, "ancestor %s was not built with DefineInterface", anc.QualifiedName()).at(name, "")
			return c
		case !t.Implements(anc.rtype):
			c.err = Errorf(CodeInvalidContract, "%s does not embed %s", t, anc.rtype).at(name, "")
			return c
		}
		c.Extends = append(c.Extends, &Interface{
			Name:    anc.Name,
			PkgPath: anc.PkgPath,
			Methods: declaredMethods(anc, cfg.extends),
			rtype:   anc.rtype,
		})
		for _, m := range anc.Methods {
			claimed[m.Name] = true
		}
	}

	var own []reflect.Method
	for i := range t.NumMethod() {
		if m := t.Method(i); !claimed[m.Name] {
			own = append(own, m)
		}
	}
	c.Methods, c.err = reflectMethods(own, name, cfg)
	return c
}

// declaredMethods returns the methods of anc that are not inherited from
// another ancestor in all.
func declaredMethods(anc *Interface, all []*Interface) []*Method {
	inherited := make(map[string]bool)
	for _, other := range all {
		if other == nil || other.rtype == nil || other.rtype == anc.rtype {
			continue
		}
		if anc.rtype.Implements(other.rtype) {
			for _, m := range other.Methods {
				inherited[m.Name] = true
			}
		}
	}

	var out []*Method
	for _, m := range anc.Methods {
		if !inherited[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

func reflectMethods(methods []reflect.Method, declarer string, cfg *contractConfig) ([]*Method, error) {
	out := make([]*Method, 0, len(methods))
	known := make(map[string]bool, len(methods))
	for _, rm := range methods {
		known[rm.Name] = true
		m, err := reflectMethod(rm, declarer, cfg.ops[rm.Name])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	for _, name := range cfg.opOrder {
		if !known[name] {
			return nil, Errorf(CodeUnknownOperation, "no method %q is declared by %s; annotate inherited methods on their interface", name, declarer).
				at(declarer, name)
		}
	}
	return out, nil
}

func reflectMethod(rm reflect.Method, declarer string, oc *operationConfig) (*Method, error) {
	if oc == nil {
		oc = &operationConfig{}
	}

	var types []reflect.Type
	for i := range rm.Type.NumIn() {
		if in := rm.Type.In(i); in != contextType {
			types = append(types, in)
		}
	}

	names := oc.params
	if names == nil {
		names = make([]string, len(types))
		for i := range names {
			names[i] = fmt.Sprintf("arg%d", i)
		}
	}
	if len(names) != len(types) {
		return nil, Errorf(CodeInvalidParameters, "%d parameter names given for %d parameters", len(names), len(types)).
			at(declarer, rm.Name)
	}

	m := &Method{
		Name:       rm.Name,
		Declarer:   declarer,
		Verb:       oc.verb,
		Timeout:    oc.timeout,
		HasTimeout: oc.hasTimeout,
		Headers:    slices.Clone(oc.headers),
	}
	for i, t := range types {
		m.Params = append(m.Params, Parameter{Name: names[i], Type: t, Position: i})
	}
	for _, name := range oc.fromBody {
		idx := slices.IndexFunc(m.Params, func(p Parameter) bool { return p.Name == name })
		if idx < 0 {
			return nil, Errorf(CodeInvalidParameters, "body parameter %q is not declared", name).
				at(declarer, rm.Name).param(name)
		}
		m.Params[idx].FromBody = true
	}
	return m, nil
}
