package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lumen-ui/lumen/pkg/dom"
)

// buildOps mutates a recording document and returns the recorded ops.
func buildOps(t *testing.T) ([]dom.Op, *dom.MemoryDocument) {
	t.Helper()

	doc := dom.NewMemoryDocument()
	log := &dom.OpLog{}
	doc.SetRecorder(log)

	div := doc.CreateElement("div")
	div.SetAttr("class", "card")
	div.SetAttr("id", "main")
	div.AppendChild(doc.CreateText("hello"))
	div.AppendChild(doc.CreateAnchor("slot"))
	doc.Root().AppendChild(div)

	span := doc.CreateElement("span")
	doc.Root().AppendChild(span)
	span.SetAttr("title", "tip")
	span.RemoveAttr("title")
	doc.Root().InsertChild(span, 0)
	doc.Root().RemoveChild(span)

	return log.Drain(), doc
}

func TestOpsRoundtrip(t *testing.T) {
	ops, _ := buildOps(t)

	e := NewEncoder()
	EncodeOps(e, ops)

	decoded, err := DecodeOps(NewDecoder(e.Bytes()))
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}
	if len(decoded) != len(ops) {
		t.Fatalf("decoded %d ops, want %d", len(decoded), len(ops))
	}

	for i, want := range ops {
		got := decoded[i]
		if got.Kind != want.Kind {
			t.Errorf("op %d kind = %v, want %v", i, got.Kind, want.Kind)
			continue
		}
		switch want.Kind {
		case dom.OpInsert:
			if got.ParentID != want.ParentID || got.Index != want.Index {
				t.Errorf("op %d insert placement = (%s, %d), want (%s, %d)",
					i, got.ParentID, got.Index, want.ParentID, want.Index)
			}
			if got.Payload == nil {
				t.Errorf("op %d insert has no payload", i)
			} else if got.NodeID != want.Node.ID() {
				t.Errorf("op %d node id = %s, want %s", i, got.NodeID, want.Node.ID())
			}
		case dom.OpMove:
			if got.NodeID != want.NodeID || got.ParentID != want.ParentID || got.Index != want.Index {
				t.Errorf("op %d move = %+v, want %+v", i, got, want)
			}
		default:
			if got.NodeID != want.NodeID || got.Key != want.Key || got.Value != want.Value {
				t.Errorf("op %d = %+v, want %+v", i, got, want)
			}
		}
	}
}

func TestInsertPayloadCarriesSubtree(t *testing.T) {
	ops, _ := buildOps(t)

	// Find the insert of the fully built div.
	var insert *dom.Op
	for i := range ops {
		if ops[i].Kind == dom.OpInsert && ops[i].Node.Tag() == "div" {
			insert = &ops[i]
			break
		}
	}
	if insert == nil {
		t.Fatal("no div insert recorded")
	}

	e := NewEncoder()
	EncodeOps(e, []dom.Op{*insert})
	decoded, err := DecodeOps(NewDecoder(e.Bytes()))
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}

	p := decoded[0].Payload
	if p == nil {
		t.Fatal("no payload")
	}

	div := insert.Node
	children := div.Children()
	want := NodePayload{
		ID:    div.ID(),
		Tag:   "div",
		Attrs: map[string]string{"class": "card", "id": "main"},
		Children: []NodePayload{
			{ID: children[0].ID(), Kind: nodeText, Text: "hello"},
			{ID: children[1].ID(), Kind: nodeAnchor, Text: "slot"},
		},
	}
	if diff := cmp.Diff(want, *p); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeOpsByteStable(t *testing.T) {
	ops, _ := buildOps(t)

	e1 := NewEncoder()
	EncodeOps(e1, ops)
	e2 := NewEncoder()
	EncodeOps(e2, ops)

	if string(e1.Bytes()) != string(e2.Bytes()) {
		t.Error("two encodings of the same ops differ")
	}
}

func TestDecodeOpsRejectsUnknownKind(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteByte(0xEE)

	if _, err := DecodeOps(NewDecoder(e.Bytes())); err == nil {
		t.Error("unknown op kind accepted")
	}
}
