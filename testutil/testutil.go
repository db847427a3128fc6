// Package testutil provides helpers for tests that compile typroxy contracts.
// It is safe to import from external test packages of any module.
package testutil

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/broady/typroxy"
)

// Compilation helps compile contracts in tests with a fluent API.
// Compiler logs are captured and available through Logs.
type Compilation struct {
	compiler  *typroxy.Compiler
	contracts []*typroxy.Contract
	logs      *bytes.Buffer
}

// NewCompilation creates a compilation of the given contracts.
func NewCompilation(contracts ...*typroxy.Contract) *Compilation {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &Compilation{
		compiler:  typroxy.NewCompiler().WithLogger(logger),
		contracts: contracts,
		logs:      logs,
	}
}

// WithBase sets the base contract.
func (c *Compilation) WithBase(base *typroxy.Interface) *Compilation {
	c.compiler.WithBaseContract(base)
	return c
}

// WithMetadataProvider replaces the metadata provider.
func (c *Compilation) WithMetadataProvider(p typroxy.MetadataProvider) *Compilation {
	c.compiler.WithMetadataProvider(p)
	return c
}

// WithTemplateParser replaces the route template parser.
func (c *Compilation) WithTemplateParser(p typroxy.TemplateParser) *Compilation {
	c.compiler.WithTemplateParser(p)
	return c
}

// Compile runs the compiler.
func (c *Compilation) Compile() (*typroxy.DescriptorSet, error) {
	return c.compiler.Compile(c.contracts...)
}

// MustCompile runs the compiler and fails the test on error.
func (c *Compilation) MustCompile(t testing.TB) *typroxy.DescriptorSet {
	t.Helper()
	set, err := c.Compile()
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if set == nil {
		t.Fatal("compile returned a nil set without an error")
	}
	return set
}

// Logs returns everything the compiler logged so far.
func (c *Compilation) Logs() string {
	return c.logs.String()
}

// AssertCode checks that err is a compilation error with the expected code
// and returns it.
func AssertCode(t testing.TB, err error, expected typroxy.ErrorCode) *typroxy.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", expected)
	}
	var e *typroxy.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *typroxy.Error, got %T: %v", err, err)
	}
	if e.Code != expected {
		t.Errorf("expected error code %s, got %s (message: %s)", expected, e.Code, e.Message)
	}
	return e
}

// AssertCompileError compiles and checks that compilation fails with the
// expected code and publishes no set.
func (c *Compilation) AssertCompileError(t testing.TB, expected typroxy.ErrorCode) *typroxy.Error {
	t.Helper()
	set, err := c.Compile()
	if set != nil {
		t.Errorf("expected no descriptor set on failure, got %d contracts", set.Len())
	}
	return AssertCode(t, err, expected)
}

// MustOperation returns the named operation of a contract, identified by
// qualified name or by its unqualified suffix, and fails the test if it
// is missing.
func MustOperation(t testing.TB, set *typroxy.DescriptorSet, contract, operation string) *typroxy.OperationDescriptor {
	t.Helper()
	cd := MustContract(t, set, contract)
	op, ok := cd.Operation(operation)
	if !ok {
		t.Fatalf("contract %s has no operation %s", cd.QualifiedName(), operation)
	}
	return op
}

// MustContract returns the contract whose qualified name is or ends with
// name, and fails the test if there is none.
func MustContract(t testing.TB, set *typroxy.DescriptorSet, name string) *typroxy.ContractDescriptor {
	t.Helper()
	if cd, ok := set.Contract(name); ok {
		return cd
	}
	for _, cd := range set.Contracts() {
		if strings.HasSuffix(cd.QualifiedName(), "."+name) {
			return cd
		}
	}
	t.Fatalf("descriptor set has no contract %s", name)
	return nil
}

// AssertOperation compares an operation snapshot with the expected one.
// Empty and nil collections compare equal.
func AssertOperation(t testing.TB, op *typroxy.OperationDescriptor, expected typroxy.OperationInfo) {
	t.Helper()
	if diff := cmp.Diff(expected, op.Describe(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("operation %s mismatch (-want +got):\n%s", op.ID(), diff)
	}
}
