package names_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/names"
)

func TestMarkDescope(t *testing.T) {
	m := names.NewManager()

	m.AddScopeName("x", nil, nil, nil)
	outer := m.Mark()

	m.AddScopeName("y", nil, nil, nil)
	m.AddScopeName("x", nil, nil, nil) // shadow

	if nm, ok := m.Lookup("x"); !ok || nm == nil {
		t.Fatal("expected innermost x to resolve")
	}

	m.Descope(outer)

	if _, ok := m.Lookup("y"); ok {
		t.Fatal("y should have been descoped")
	}
	if nm, ok := m.Lookup("x"); !ok {
		t.Fatal("outer x should still resolve")
	} else if nm.Refs() != 1 {
		t.Fatalf("expected outer x to retain its single reference, got %d", nm.Refs())
	}
}

func TestNamespaceHiding(t *testing.T) {
	m := names.NewManager()
	nm := m.AddScopeName("foo", nil, nil, nil)
	nm.Namespace = "priv"

	if _, ok := m.Lookup("foo"); !ok {
		t.Fatal("expected foo to resolve before hiding")
	}

	m.HideNamespace("priv")
	if _, ok := m.Lookup("foo"); ok {
		t.Fatal("expected foo to be hidden")
	}

	m.ShowNamespace("priv")
	if _, ok := m.Lookup("foo"); !ok {
		t.Fatal("expected foo to resolve again after showing")
	}
}

func TestLookupMissing(t *testing.T) {
	m := names.NewManager()
	if _, ok := m.Lookup("nope"); ok {
		t.Fatal("expected lookup miss")
	}
}
