package factory

import "testing"

type widget struct{ Size int }

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*widget]()
	err := reg.Register("basic", func(conf map[string]any) (*widget, error) {
		var c struct {
			Size int `json:"size"`
		}
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &widget{Size: c.Size}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	w, err := reg.Create(ModuleConfig{Type: "basic", Conf: map[string]any{"size": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Size != 3 {
		t.Fatalf("decoded size %d", w.Size)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry[int]()
	f := func(map[string]any) (int, error) { return 0, nil }
	if err := reg.Register("dup", f); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register("dup", f); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry[int]()
	if _, err := reg.Create(ModuleConfig{Type: "missing"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestRegisterNil(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("nil", nil); err == nil {
		t.Fatalf("expected error for nil factory")
	}
}
