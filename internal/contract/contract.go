// Package contract loads the administration API's OpenAPI document and
// verifies at startup that every endpoint the BFF depends on is present.
// A missing endpoint is a deployment error, caught before traffic arrives.
package contract

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Endpoint is one method/path pair the BFF calls on the backend.
type Endpoint struct {
	Method string
	Path   string
}

// RequiredEndpoints lists everything the report-filter engine calls.
func RequiredEndpoints() []Endpoint {
	return []Endpoint{
		{Method: http.MethodGet, Path: "/paises"},
		{Method: http.MethodGet, Path: "/vendedores"},
		{Method: http.MethodGet, Path: "/categorias-suministros"},
		{Method: http.MethodPost, Path: "/reportes/"},
	}
}

// Contract is the loaded backend API description.
type Contract struct {
	mu     sync.RWMutex
	doc    *openapi3.T
	loaded bool
}

// New creates an empty, unloaded Contract.
func New() *Contract {
	return &Contract{}
}

// LoadFile parses and validates the OpenAPI document at path, then checks
// the required endpoints.
func (c *Contract) LoadFile(ctx context.Context, path string) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("contract: loading %s: %w", path, err)
	}
	return c.adopt(ctx, doc)
}

// LoadData parses and validates an OpenAPI document from memory.
func (c *Contract) LoadData(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("contract: parsing document: %w", err)
	}
	return c.adopt(ctx, doc)
}

func (c *Contract) adopt(ctx context.Context, doc *openapi3.T) error {
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("contract: validating document: %w", err)
	}

	var missing []string
	for _, ep := range RequiredEndpoints() {
		if !hasOperation(doc, ep.Method, ep.Path) {
			missing = append(missing, ep.Method+" "+ep.Path)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("contract: backend API is missing required endpoints: %s",
			strings.Join(missing, ", "))
	}

	c.mu.Lock()
	c.doc = doc
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether a valid contract has been adopted. Used by the
// readiness endpoint.
func (c *Contract) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Operation returns the operation for a method/path pair, if the contract
// declares it.
func (c *Contract) Operation(method, path string) (*openapi3.Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.doc == nil {
		return nil, false
	}
	item := c.doc.Paths.Value(path)
	if item == nil {
		return nil, false
	}
	op := item.GetOperation(strings.ToUpper(method))
	return op, op != nil
}

func hasOperation(doc *openapi3.T, method, path string) bool {
	item := doc.Paths.Value(path)
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}
