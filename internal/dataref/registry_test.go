package dataref

import (
	"errors"
	"testing"
)

func TestRegistryAddGet(t *testing.T) {
	reg := NewRegistry()

	roll, err := reg.Add("input.controls.roll", Double)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	roll.SetFloat64(0.25)

	got := reg.Get("input.controls.roll")
	if !got.Valid() {
		t.Fatal("expected valid ref")
	}
	if got.Kind() != Double {
		t.Errorf("expected double, got %s", got.Kind())
	}
	if got.Float64() != 0.25 {
		t.Errorf("expected 0.25, got %f", got.Float64())
	}

	*got.Float64Ptr() = -1
	if roll.Float64() != -1 {
		t.Errorf("pointer write not visible through original ref: %f", roll.Float64())
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Add("input.controls.lgh", Bool); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := reg.Add("input.controls.lgh", Bool)
	if err == nil {
		t.Fatal("expected error on duplicate path")
	}
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected *InitError, got %T", err)
	}
	if initErr.Path != "input.controls.lgh" {
		t.Errorf("unexpected path in error: %s", initErr.Path)
	}

	// a duplicate with a different kind is still a duplicate
	if _, err := reg.Add("input.controls.lgh", Double); err == nil {
		t.Error("expected error on duplicate path with other kind")
	}
}

func TestRegistryInvalid(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind Kind
	}{
		{"invalid kind", "input.a", Invalid},
		{"unknown kind", "input.b", Kind(42)},
		{"empty path", "", Double},
		{"empty segment", "input..roll", Double},
		{"trailing dot", "input.roll.", Double},
		{"upper case", "input.Roll", Double},
		{"space", "input.ro ll", Bool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if _, err := reg.Add(tt.path, tt.kind); err == nil {
				t.Error("expected error, got nil")
			}
			if reg.Len() != 0 {
				t.Errorf("failed registration left %d cells", reg.Len())
			}
		})
	}
}

func TestRegistryUnknownPath(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Add("input.controls.pitch", Double); err != nil {
		t.Fatal(err)
	}

	ref := reg.Get("input.controls.yaw")
	if ref.Valid() {
		t.Fatal("expected invalid ref for unknown path")
	}
	if ref.Kind() != Invalid {
		t.Errorf("expected invalid kind, got %s", ref.Kind())
	}
	if ref.Float64Ptr() != nil || ref.BoolPtr() != nil {
		t.Error("invalid ref must not expose storage")
	}

	// writes through an invalid ref are dropped
	ref.SetFloat64(3)
	ref.SetBool(true)
	if reg.Len() != 1 {
		t.Errorf("expected 1 cell, got %d", reg.Len())
	}
}

func TestRefKindConversion(t *testing.T) {
	reg := NewRegistry()
	b, _ := reg.Add("input.controls.nws", Bool)
	d, _ := reg.Add("input.controls.flaps", Double)

	b.SetFloat64(1)
	if !b.Bool() || b.Float64() != 1 {
		t.Error("bool cell should read true after SetFloat64(1)")
	}
	if b.Float64Ptr() != nil {
		t.Error("bool cell must not expose float storage")
	}

	d.SetBool(true)
	if d.Float64() != 1 || !d.Bool() {
		t.Error("double cell should read 1 after SetBool(true)")
	}
	if d.BoolPtr() != nil {
		t.Error("double cell must not expose bool storage")
	}
}

func TestRegistryPaths(t *testing.T) {
	reg := NewRegistry()
	for _, p := range []string{"input.masses.trunk", "input.controls.roll", "input.engine_1.throttle"} {
		if _, err := reg.Add(p, Double); err != nil {
			t.Fatal(err)
		}
	}

	paths := reg.Paths()
	want := []string{"input.controls.roll", "input.engine_1.throttle", "input.masses.trunk"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %d", len(want), len(paths))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}
