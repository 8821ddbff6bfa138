package contract

import (
	"context"
	"strings"
	"testing"
)

const fullSpec = `
openapi: 3.0.3
info:
  title: Administracion API
  version: "1.0"
paths:
  /paises:
    get:
      operationId: listPaises
      responses:
        "200":
          description: ok
  /vendedores:
    get:
      operationId: listVendedores
      responses:
        "200":
          description: ok
  /categorias-suministros:
    get:
      operationId: listCategorias
      responses:
        "200":
          description: ok
  /reportes/:
    post:
      operationId: generarReporte
      responses:
        "200":
          description: ok
`

const missingReportSpec = `
openapi: 3.0.3
info:
  title: Administracion API
  version: "1.0"
paths:
  /paises:
    get:
      operationId: listPaises
      responses:
        "200":
          description: ok
  /vendedores:
    get:
      operationId: listVendedores
      responses:
        "200":
          description: ok
  /categorias-suministros:
    get:
      operationId: listCategorias
      responses:
        "200":
          description: ok
`

func TestLoadDataAcceptsCompleteContract(t *testing.T) {
	c := New()
	if err := c.LoadData(context.Background(), []byte(fullSpec)); err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if !c.Loaded() {
		t.Error("contract should report loaded")
	}

	op, ok := c.Operation("POST", "/reportes/")
	if !ok || op.OperationID != "generarReporte" {
		t.Errorf("report operation not found: %v, %v", op, ok)
	}
}

func TestLoadDataRejectsMissingEndpoint(t *testing.T) {
	c := New()
	err := c.LoadData(context.Background(), []byte(missingReportSpec))
	if err == nil {
		t.Fatal("expected an error for a contract without the report endpoint")
	}
	if !strings.Contains(err.Error(), "POST /reportes/") {
		t.Errorf("error should name the missing endpoint: %v", err)
	}
	if c.Loaded() {
		t.Error("a rejected contract must not be marked loaded")
	}
}

func TestLoadDataRejectsInvalidDocument(t *testing.T) {
	c := New()
	if err := c.LoadData(context.Background(), []byte("paths: {}")); err == nil {
		t.Fatal("expected an error for an invalid document")
	}
}

func TestOperationUnknownPath(t *testing.T) {
	c := New()
	if err := c.LoadData(context.Background(), []byte(fullSpec)); err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if _, ok := c.Operation("GET", "/unknown"); ok {
		t.Error("unknown path should not resolve")
	}
	if _, ok := c.Operation("DELETE", "/paises"); ok {
		t.Error("undeclared method should not resolve")
	}
}
