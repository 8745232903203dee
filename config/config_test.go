package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	o := Default()
	if err := o.Validate(); err != nil {
		t.Fatalf("default options should validate, got %v", err)
	}
}

func TestApplyFoldsOptionsOverDefault(t *testing.T) {
	o := Apply(WithTargetFPS(30), WithMouse(true), WithMouseMovement(true))
	if o.TargetFPS != 30 || !o.UseMouse || !o.UseMouseMovement {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestValidateRejectsMouseMovementWithoutMouse(t *testing.T) {
	o := Options{UseMouseMovement: true}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error for mouse movement without mouse")
	}
}

func TestValidateClampsTargetFPS(t *testing.T) {
	o := Options{TargetFPS: 10000}
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.TargetFPS != 240 {
		t.Errorf("expected target_fps clamped to 240, got %d", o.TargetFPS)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cellscape.yaml")
	content := "target_fps: 30\nuse_mouse: true\nuse_alternate_screen: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if o.TargetFPS != 30 || !o.UseMouse || o.UseAlternateScreen {
		t.Errorf("unexpected options from YAML: %+v", o)
	}
}
