// Package source loads typroxy contracts from Go source.
//
// Contracts are interface types annotated with line comment directives:
//
//	//typroxy:route region=orders template=api/[controller]
//	type OrdersAPI interface {
//		//typroxy:get {id}
//		//typroxy:timeout 5s
//		//typroxy:header X-Trace: on
//		Find(ctx context.Context, id string) (*Order, error)
//
//		//typroxy:put {id} type=application/json
//		//typroxy:body order
//		Update(ctx context.Context, id string, order Order) error
//	}
//
// An interface marked //typroxy:contract without a route is loaded as a
// contract lacking its route annotation. Methods are enumerated in source
// order with their declared parameter names; context.Context parameters
// are skipped. Embedded interfaces are the contract's ancestors.
package source

import (
	"cmp"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/broady/typroxy"
)

// Options configures Load.
type Options struct {
	// Patterns are go command package patterns. Default is ".".
	Patterns []string

	// Dir is the working directory for the go command. Empty means the
	// current directory.
	Dir string

	// BaseContract names the base interface as "Name" within the loaded
	// packages or as "import/path.Name". Empty means no base contract.
	BaseContract string
}

// Result holds the contracts found in the loaded packages.
type Result struct {
	// Contracts are ordered by package path, then source position.
	Contracts []*typroxy.Contract

	// Base is nil when Options.BaseContract is empty.
	Base *typroxy.Interface

	// Packages are the import paths of the loaded packages.
	Packages []string
}

// Compile compiles the loaded contracts with source-derived metadata.
func (r *Result) Compile(logger *slog.Logger) (*typroxy.DescriptorSet, error) {
	return typroxy.NewCompiler().
		WithLogger(logger).
		WithMetadataProvider(NewTypesMetadataProvider()).
		WithBaseContract(r.Base).
		Compile(r.Contracts...)
}

// Load loads the packages matching the patterns and builds their
// contracts.
//
// Returns an error if:
//   - The packages cannot be loaded or have type errors
//   - A directive is malformed or misplaced
//   - The base contract cannot be found
func Load(ctx context.Context, opts Options) (*Result, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
		Dir: opts.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %v", patterns)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}
	slices.SortFunc(pkgs, func(a, b *packages.Package) int {
		return cmp.Compare(a.PkgPath, b.PkgPath)
	})

	l := &loader{decls: make(map[*types.TypeName]*interfaceDecl)}
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		l.index(pkg)
	})
	if l.err != nil {
		return nil, l.err
	}

	result := &Result{}
	if opts.BaseContract != "" {
		named, err := l.find(pkgs, opts.BaseContract)
		if err != nil {
			return nil, err
		}
		base, err := l.base(named)
		if err != nil {
			return nil, err
		}
		result.Base = base
		l.baseName = base.QualifiedName()
	}

	for _, pkg := range pkgs {
		result.Packages = append(result.Packages, pkg.PkgPath)
		for _, d := range l.packageDecls(pkg) {
			ann, err := applyTypeDirectives(d.directives)
			if err != nil {
				return nil, err
			}
			if !ann.contract {
				continue
			}
			contract, err := l.contract(d, ann.route)
			if err != nil {
				return nil, err
			}
			result.Contracts = append(result.Contracts, contract)
		}
	}
	return result, nil
}

// interfaceDecl is an interface type declared in a loaded package.
type interfaceDecl struct {
	pkg        *packages.Package
	obj        *types.TypeName
	named      *types.Named
	iface      *ast.InterfaceType
	directives []Directive
	pos        token.Pos
}

type loader struct {
	decls    map[*types.TypeName]*interfaceDecl
	baseName string
	err      error
}

// index records every interface declaration of pkg that has syntax.
func (l *loader) index(pkg *packages.Package) {
	if pkg.TypesInfo == nil || l.err != nil {
		return
	}
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				it, ok := ts.Type.(*ast.InterfaceType)
				if !ok {
					continue
				}
				obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok {
					continue
				}
				named, ok := obj.Type().(*types.Named)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				directives, err := parseDirectives(pkg.Fset, doc)
				if err != nil && l.err == nil {
					l.err = err
				}
				l.decls[obj] = &interfaceDecl{
					pkg:        pkg,
					obj:        obj,
					named:      named,
					iface:      it,
					directives: directives,
					pos:        ts.Pos(),
				}
			}
		}
	}
}

// packageDecls returns the interfaces declared by pkg in source order.
func (l *loader) packageDecls(pkg *packages.Package) []*interfaceDecl {
	var out []*interfaceDecl
	for _, d := range l.decls {
		if d.pkg == pkg {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *interfaceDecl) int {
		pa, pb := pkg.Fset.Position(a.pos), pkg.Fset.Position(b.pos)
		if c := cmp.Compare(pa.Filename, pb.Filename); c != 0 {
			return c
		}
		return cmp.Compare(pa.Offset, pb.Offset)
	})
	return out
}

// find resolves "Name" or "import/path.Name" to a named interface.
func (l *loader) find(pkgs []*packages.Package, name string) (*types.Named, error) {
	pkgPath, typeName := "", name
	if i := strings.LastIndex(name, "."); i >= 0 {
		pkgPath, typeName = name[:i], name[i+1:]
	}
	var found []*types.Named
	for obj, d := range l.decls {
		if obj.Name() != typeName {
			continue
		}
		if pkgPath != "" && obj.Pkg().Path() != pkgPath {
			continue
		}
		if pkgPath == "" && !slices.Contains(pkgs, d.pkg) {
			continue
		}
		found = append(found, d.named)
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("base contract %s not found", name)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("base contract %s is ambiguous; qualify it with its import path", name)
	}
}

func qualifiedName(named *types.Named) string {
	if path := pkgPath(named); path != "" {
		return path + "." + named.Obj().Name()
	}
	return named.Obj().Name()
}

// pkgPath returns the import path of named, or "" for universe types
// such as error.
func pkgPath(named *types.Named) string {
	if pkg := named.Obj().Pkg(); pkg != nil {
		return pkg.Path()
	}
	return ""
}

// contract builds the contract declared by d.
func (l *loader) contract(d *interfaceDecl, route *typroxy.Route) (*typroxy.Contract, error) {
	obj := d.named.Obj()
	c := &typroxy.Contract{
		Name:    obj.Name(),
		PkgPath: pkgPath(d.named),
		Route:   route,
	}

	methods, err := l.declaredMethods(d.named, qualifiedName(d.named))
	if err != nil {
		return nil, err
	}
	c.Methods = methods

	seen := map[*types.Named]bool{d.named: true}
	var walk func(named *types.Named) error
	walk = func(named *types.Named) error {
		for _, anc := range l.embedded(named) {
			name := qualifiedName(anc)
			if seen[anc] || name == l.baseName {
				continue
			}
			seen[anc] = true
			methods, err := l.declaredMethods(anc, name)
			if err != nil {
				return err
			}
			c.Extends = append(c.Extends, &typroxy.Interface{
				Name:    anc.Obj().Name(),
				PkgPath: pkgPath(anc),
				Methods: methods,
			})
			if err := walk(anc); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(d.named); err != nil {
		return nil, err
	}
	return c, nil
}

// base builds the base contract: its own methods followed by those of
// every interface it embeds, all declared by the base.
func (l *loader) base(named *types.Named) (*typroxy.Interface, error) {
	name := qualifiedName(named)
	iface := &typroxy.Interface{Name: named.Obj().Name(), PkgPath: pkgPath(named)}

	seen := map[*types.Named]bool{}
	var walk func(n *types.Named) error
	walk = func(n *types.Named) error {
		if seen[n] {
			return nil
		}
		seen[n] = true
		methods, err := l.declaredMethods(n, name)
		if err != nil {
			return err
		}
		iface.Methods = append(iface.Methods, methods...)
		for _, anc := range l.embedded(n) {
			if err := walk(anc); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(named); err != nil {
		return nil, err
	}
	return iface, nil
}

// embedded returns the named interfaces embedded by named, in source
// order when its declaration is available.
func (l *loader) embedded(named *types.Named) []*types.Named {
	var out []*types.Named
	add := func(t types.Type) {
		if n, ok := types.Unalias(t).(*types.Named); ok {
			if _, isIface := n.Underlying().(*types.Interface); isIface {
				out = append(out, n)
			}
		}
	}

	if d, ok := l.decls[named.Obj()]; ok {
		for _, field := range d.iface.Methods.List {
			if len(field.Names) == 0 {
				add(d.pkg.TypesInfo.TypeOf(field.Type))
			}
		}
		return out
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil
	}
	for i := range iface.NumEmbeddeds() {
		add(iface.EmbeddedType(i))
	}
	return out
}

// declaredMethods returns the methods named declares itself. Directives
// are read when the declaration's syntax is available.
func (l *loader) declaredMethods(named *types.Named, declarer string) ([]*typroxy.Method, error) {
	var out []*typroxy.Method

	d, ok := l.decls[named.Obj()]
	if !ok {
		iface, isIface := named.Underlying().(*types.Interface)
		if !isIface {
			return nil, fmt.Errorf("%s is not an interface", declarer)
		}
		for i := range iface.NumExplicitMethods() {
			out = append(out, newMethod(iface.ExplicitMethod(i), declarer))
		}
		return out, nil
	}

	for _, field := range d.iface.Methods.List {
		if len(field.Names) == 0 {
			continue
		}
		for _, ident := range field.Names {
			fn, ok := d.pkg.TypesInfo.Defs[ident].(*types.Func)
			if !ok {
				return nil, fmt.Errorf("%s: no type information for %s.%s",
					d.pkg.Fset.Position(ident.Pos()), declarer, ident.Name)
			}
			m := newMethod(fn, declarer)
			directives, err := parseDirectives(d.pkg.Fset, field.Doc)
			if err != nil {
				return nil, err
			}
			if err := applyMethodDirectives(m, directives); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func newMethod(fn *types.Func, declarer string) *typroxy.Method {
	m := &typroxy.Method{Name: fn.Name(), Declarer: declarer}
	sig := fn.Type().(*types.Signature)
	for i := range sig.Params().Len() {
		v := sig.Params().At(i)
		if isContext(v.Type()) {
			continue
		}
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", len(m.Params))
		}
		m.Params = append(m.Params, typroxy.Parameter{
			Name:     name,
			Type:     v.Type(),
			Position: len(m.Params),
		})
	}
	return m
}

func isContext(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}
