package pnlkit

import (
	"testing"
)

func TestJSONObjectWriterOrder(t *testing.T) {
	var w jsonObjectWriter
	w.Append("b", 2)
	w.Append("a", 1)

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	// insertion order, not alphabetical
	if string(got) != `{"b":2,"a":1}` {
		t.Errorf("got %s", got)
	}
}

func TestJSONObjectWriterOptional(t *testing.T) {
	var w jsonObjectWriter
	w.Append("kind", "cash")
	w.Optional("metadata", map[string]string(nil))
	w.Optional("note", "")
	w.Optional("shares", 1.5)

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(got) != `{"kind":"cash","shares":1.5}` {
		t.Errorf("got %s", got)
	}
}

func TestJSONObjectWriterEmbed(t *testing.T) {
	var w jsonObjectWriter
	w.Embed([]byte(`{"x":1}`))
	w.Append("y", 2)

	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(got) != `{"x":1,"y":2}` {
		t.Errorf("got %s", got)
	}
}

func TestJSONObjectWriterEmpty(t *testing.T) {
	var w jsonObjectWriter
	got, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(got) != `{}` {
		t.Errorf("got %s", got)
	}
}
