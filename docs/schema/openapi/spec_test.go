package openapi

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSpecReturnsCopyOfFile(t *testing.T) {
	want, err := os.ReadFile("penguinboard.yaml")
	if err != nil {
		t.Fatalf("read penguinboard.yaml: %v", err)
	}
	spec := Spec()
	if !bytes.Equal(spec, want) {
		t.Fatalf("Spec does not match the embedded file")
	}
	spec[0] ^= 0xFF
	if !bytes.Equal(Spec(), want) {
		t.Fatalf("Spec mutation leaked into embedded content")
	}
}

func TestSpecListsDashboardRoutes(t *testing.T) {
	spec := string(Spec())
	for _, path := range []string{
		"/api/v1/controls:",
		"/api/v1/sessions:",
		"/api/v1/sessions/{id}/filter:",
		"/api/v1/sessions/{id}/rows:",
		"/api/v1/sessions/{id}/histogram.png:",
	} {
		if !strings.Contains(spec, path) {
			t.Fatalf("openapi document missing %s", path)
		}
	}
}
