package typroxy

import (
	"reflect"
	"time"
)

// Route is the route annotation every contract must carry.
type Route struct {
	// RegionKey names the logical host group the contract is served from.
	RegionKey string `validate:"notblank"`

	// Template is combined with the contract name to form the base route.
	// "[controller]" or "{controller}" is replaced by the name; otherwise the
	// name is appended as the last segment.
	Template string
}

// Contract is the compiler input describing one remote API surface.
//
// Contracts are usually built with Define or loaded from Go source, but
// the fields are exported so other front ends can construct them.
type Contract struct {
	Name    string
	PkgPath string

	// Route is nil when the contract carries no route annotation.
	Route *Route

	// Methods are the methods declared directly on the contract.
	Methods []*Method

	// Extends lists every ancestor interface of the contract with the
	// methods it declares itself.
	Extends []*Interface

	rtype reflect.Type
	err   error
}

// QualifiedName identifies the contract within a descriptor set.
func (c *Contract) QualifiedName() string {
	return qualify(c.PkgPath, c.Name)
}

// Interface is an ancestor interface of a contract, or the base contract
// whose methods every contract exposes.
type Interface struct {
	Name    string
	PkgPath string
	Methods []*Method

	rtype reflect.Type
	err   error
}

// QualifiedName identifies the interface.
func (i *Interface) QualifiedName() string {
	return qualify(i.PkgPath, i.Name)
}

// Method is one declared contract method with its annotations.
type Method struct {
	Name string

	// Declarer is the qualified name of the declaring interface. Empty
	// means the contract itself.
	Declarer string

	Params []Parameter

	// Verb is nil when the method carries no verb marker.
	Verb *VerbMarker

	Timeout    time.Duration
	HasTimeout bool

	// Headers holds "Name: Value" entries.
	Headers []string
}

func qualify(pkgPath, name string) string {
	if pkgPath == "" {
		return name
	}
	return pkgPath + "." + name
}
