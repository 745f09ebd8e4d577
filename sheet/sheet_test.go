package sheet_test

import (
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"stylo/sheet"
	"stylo/surface"
)

func TestSheet_Inspectable(t *testing.T) {
	doc := surface.New()
	s := sheet.New(doc, sheet.Options{Key: "css", Nonce: "n0nce"}, zaptest.NewLogger(t))

	s.Insert(".a{color:red;}")
	s.Tag("a")
	s.Insert(".b{color:blue;}")
	s.Tag("b")
	s.Tag("b")

	nodes := doc.StyleNodes("css")
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want one per rule", len(nodes))
	}
	for i, want := range []struct{ text, ids string }{{".a{color:red;}", "a"}, {".b{color:blue;}", "b"}} {
		n := nodes[i]
		if n.Text() != want.text {
			t.Errorf("node %d text = %q, want %q", i, n.Text(), want.text)
		}
		if n.Attr(surface.AttrIDs) != want.ids {
			t.Errorf("node %d ids = %q, want %q", i, n.Attr(surface.AttrIDs), want.ids)
		}
		if n.Attr(surface.AttrNonce) != "n0nce" {
			t.Errorf("node %d nonce = %q", i, n.Attr(surface.AttrNonce))
		}
		if n.Parent().Tag() != "head" {
			t.Errorf("node %d parent = %s", i, n.Parent().Tag())
		}
	}
}

func TestSheet_Speedy(t *testing.T) {
	doc := surface.New()
	s := sheet.New(doc, sheet.Options{Key: "css", Speedy: true}, nil)

	s.Insert(".a{color:red;}")
	s.Insert(".b{color:blue;}")
	s.Insert("@import url(a.css);")
	s.Tag("a")
	s.Tag("b")

	nodes := doc.StyleNodes("css")
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	want := []string{"@import url(a.css);", ".a{color:red;}", ".b{color:blue;}"}
	if got := nodes[0].Rules(); !slices.Equal(got, want) {
		t.Errorf("Rules() = %q, want %q", got, want)
	}
	if nodes[0].Text() != "" {
		t.Errorf("Text() = %q, speedy sheet must not write text", nodes[0].Text())
	}
	if got := nodes[0].Attr(surface.AttrIDs); got != "a b" {
		t.Errorf("ids = %q, want %q", got, "a b")
	}
	if nodes[0].Attr(surface.AttrNonce) != "" {
		t.Error("unexpected nonce on node")
	}
}

func TestSheet_Rejected(t *testing.T) {
	for _, dev := range []bool{true, false} {
		core, logs := observer.New(zap.WarnLevel)
		doc := surface.New()
		s := sheet.New(doc, sheet.Options{Key: "css", Speedy: true, Dev: dev}, zap.New(core))

		s.Insert(".a{color:red")
		s.Insert(".b{color:blue;}")

		if got := doc.StyleNodes("css")[0].Rules(); !slices.Equal(got, []string{".b{color:blue;}"}) {
			t.Errorf("dev=%v: Rules() = %q", dev, got)
		}
		warns := logs.FilterMessage("Rule rejected by the surface, dropping").Len()
		if dev && warns != 1 {
			t.Errorf("dev=%v: got %d warnings, want 1", dev, warns)
		}
		if !dev && warns != 0 {
			t.Errorf("dev=%v: got %d warnings, want none", dev, warns)
		}
	}
}

func TestSheet_MisplacedImportWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := sheet.New(surface.New(), sheet.Options{Key: "css", Dev: true}, zap.New(core))

	s.Insert("@import url(a.css);")
	s.Insert(".a{}")
	s.Insert("@import url(b.css);")
	if n := logs.Len(); n != 1 {
		t.Errorf("got %d warnings, want 1", n)
	}
}

func TestSheet_FlushAndHydrate(t *testing.T) {
	doc, err := surface.Parse(`<html><head><meta/></head><body>` +
		`<style data-css="css" data-css-ids="x">.css-x{}</style><p/>` +
		`<style data-css="css" data-css-ids="y">.css-y{}</style></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := sheet.New(doc, sheet.Options{Key: "css"}, nil)

	hydrated := doc.StyleNodes("css")
	s.Hydrate(hydrated)
	s.Insert(".css-z{}")

	head := doc.Head().Children()
	if len(head) != 4 {
		t.Fatalf("head has %d children, want 4", len(head))
	}
	var ids []string
	for _, el := range head[1:] {
		ids = append(ids, el.Attr(surface.AttrIDs))
	}
	if want := []string{"x", "y", ""}; !slices.Equal(ids, want) {
		t.Errorf("ids in head = %q, want %q", ids, want)
	}
	if len(s.Nodes()) != 3 {
		t.Errorf("Nodes() = %d, want 3", len(s.Nodes()))
	}

	s.Flush()
	if n := len(doc.StyleNodes("css")); n != 0 {
		t.Errorf("after Flush() %d nodes remain", n)
	}
	if len(s.Nodes()) != 0 {
		t.Errorf("Nodes() after Flush() = %d", len(s.Nodes()))
	}

	s.Insert(".a{}")
	if nodes := doc.StyleNodes("css"); len(nodes) != 1 || nodes[0].Parent().Tag() != "head" {
		t.Error("sheet is not usable after Flush()")
	}
}
