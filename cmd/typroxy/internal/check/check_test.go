package check

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/typroxy"
	"github.com/broady/typroxy/internal/config"
)

const validSource = `package svc

import "context"

type Root interface {
	Ping(ctx context.Context) error
}

//typroxy:route region=orders template=api/[controller]
type OrdersAPI interface {
	//typroxy:get {id}
	Find(ctx context.Context, id string) error

	//typroxy:delete {id}
	Remove(ctx context.Context, id string) error
}
`

const conflictSource = `package svc

import (
	"context"
	"mime/multipart"
)

//typroxy:route region=files
type FilesAPI interface {
	//typroxy:post upload
	//typroxy:body file
	Upload(ctx context.Context, file *multipart.FileHeader) error
}
`

func writeModule(t *testing.T, src string) string {
	t.Helper()
	t.Setenv("GOWORK", "off")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/svc\n\ngo 1.22\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "svc.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Patterns: []string{"."}, Dir: dir},
		Output: config.OutputConfig{Format: "json", Path: "-"},
	}
}

func TestCheck(t *testing.T) {
	dir := writeModule(t, validSource)
	var out bytes.Buffer

	cmd := &Cmd{Base: "Root", Verbose: true}
	err := cmd.Execute(context.Background(), testConfig(dir), slog.New(slog.NewTextHandler(io.Discard, nil)), &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "✓ Loaded 1 packages")
	assert.Contains(t, got, "✓ Found base contract: example.com/svc.Root")
	assert.Contains(t, got, "OrdersAPI (orders) api/Orders")
	assert.Contains(t, got, "example.com/svc.OrdersAPI.Find {id}")
	assert.Contains(t, got, "example.com/svc.Root.Ping")
	assert.Contains(t, got, "✓ 1 contracts, 3 operations")
}

func TestCheck_DefinitionError(t *testing.T) {
	dir := writeModule(t, conflictSource)
	var out bytes.Buffer

	cmd := &Cmd{}
	err := cmd.Execute(context.Background(), testConfig(dir), slog.New(slog.NewTextHandler(io.Discard, nil)), &out)
	require.Error(t, err)
	assert.True(t, typroxy.IsCode(err, typroxy.CodeFormFileBodyConflict))

	got := out.String()
	assert.Contains(t, got, "✗ ")
	assert.Contains(t, got, "operation: Upload")
	assert.Contains(t, got, "parameter: file")
}

func TestCheck_LoadError(t *testing.T) {
	dir := writeModule(t, validSource)

	cmd := &Cmd{Base: "Missing"}
	err := cmd.Execute(context.Background(), testConfig(dir), slog.New(slog.NewTextHandler(io.Discard, nil)), io.Discard)
	require.ErrorContains(t, err, "load:")
}
