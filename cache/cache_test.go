package cache_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"stylo/cache"
	"stylo/css"
	"stylo/surface"
)

func newBrowser(t *testing.T, doc *surface.Document, opts cache.Options) *cache.Cache {
	t.Helper()
	c, err := cache.New(doc, opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func allRules(doc *surface.Document, key string) []string {
	var out []string
	for _, n := range doc.StyleNodes(key) {
		out = append(out, n.Rules()...)
	}
	return out
}

func TestNew_InvalidKey(t *testing.T) {
	for _, key := range []string{"Css", "1css", "css_x", "c s"} {
		if _, err := cache.New(nil, cache.Options{Key: key}, nil); err == nil {
			t.Errorf("New() with key %q expected error", key)
		}
	}
	c, err := cache.New(nil, cache.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Key() != cache.DefaultKey {
		t.Errorf("Key() = %q, want %q", c.Key(), cache.DefaultKey)
	}
}

func TestCache_Hash(t *testing.T) {
	c := newBrowser(t, surface.New(), cache.Options{Hash: func(text string) string { return text }})
	tests := map[string]string{
		"0abc": "gabc",
		"9":    "p",
		"1":    "h",
		"5x":   "lx",
		"abc":  "abc",
		"":     "",
	}
	for in, want := range tests {
		if got := c.Hash(in); got != want {
			t.Errorf("Hash(%q) = %q, want %q", in, got, want)
		}
	}

	calls := 0
	counting := newBrowser(t, surface.New(), cache.Options{Hash: func(text string) string { calls++; return cache.DefaultHash(text) }})
	a, b := counting.Hash("display:flex;"), counting.Hash("display:flex;")
	if a != b || calls != 1 {
		t.Errorf("Hash() not memoized: %q %q, %d calls", a, b, calls)
	}
	if a[0] >= '0' && a[0] <= '9' {
		t.Errorf("Hash() = %q starts with digit", a)
	}

	// memo is per instance
	other := newBrowser(t, surface.New(), cache.Options{Key: "other", Hash: func(string) string { return "x" }})
	if got := other.Hash("display:flex;"); got != "x" {
		t.Errorf("Hash() = %q, memo shared between instances", got)
	}
}

func TestCache_InsertIdempotent(t *testing.T) {
	doc := surface.New()
	c := newBrowser(t, doc, cache.Options{})

	for range 3 {
		if err := c.Insert(".css-a", "a", "display:flex;"); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	if got := allRules(doc, "css"); !slices.Equal(got, []string{".css-a{display:flex;}"}) {
		t.Errorf("rules = %q", got)
	}
	if st := c.Stats(); st.Misses != 1 || st.Hits != 2 {
		t.Errorf("Stats() = %+v", st)
	}
	if !c.Inserted("a") || c.Inserted("b") {
		t.Error("Inserted() mismatch")
	}
	if ids := doc.StyleNodes("css")[0].Attr(surface.AttrIDs); ids != "a" {
		t.Errorf("ids = %q, want a", ids)
	}
}

func TestCache_ReentrantInsert(t *testing.T) {
	doc := surface.New()
	var c *cache.Cache
	calls := 0
	reenter := func(el css.Element) (string, bool) {
		if el.Context == css.ContextFinalize {
			calls++
			if err := c.Insert(".css-a", "a", "display:flex;"); err != nil {
				t.Errorf("Insert() error = %v", err)
			}
		}
		return "", false
	}
	c = newBrowser(t, doc, cache.Options{Plugins: []css.Plugin{reenter}})

	if err := c.Insert(".css-a", "a", "display:flex;"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("compiled %d times, want 1", calls)
	}
	if n := len(allRules(doc, "css")); n != 1 {
		t.Errorf("got %d rules, want 1", n)
	}
}

func TestCache_ClearIsNotFlush(t *testing.T) {
	doc := surface.New()
	c := newBrowser(t, doc, cache.Options{})

	_ = c.Insert(".css-a", "a", "color:red;")
	c.Clear()
	if c.Inserted("a") {
		t.Error("Clear() kept record")
	}
	if n := len(allRules(doc, "css")); n != 1 {
		t.Errorf("Clear() touched surface: %d rules", n)
	}

	// cleared registry re-declares content
	_ = c.Insert(".css-a", "a", "color:red;")
	if n := len(allRules(doc, "css")); n != 2 {
		t.Errorf("got %d rules, want 2", n)
	}

	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := len(doc.StyleNodes("css")); n != 0 {
		t.Errorf("Flush() left %d nodes", n)
	}
	if c.Inserted("a") {
		t.Error("Flush() kept record")
	}
}

func TestCache_AcquireRelease(t *testing.T) {
	const n = 4

	doc := surface.New()
	c := newBrowser(t, doc, cache.Options{})
	_ = c.Insert(".css-p", "p", "color:red;")

	var releases []func()
	for range n {
		release, err := c.Acquire("", "g", "body{margin:0}")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		releases = append(releases, release)
	}
	if got := allRules(doc, "css"); !slices.Equal(got, []string{".css-p{color:red;}", "body{margin:0;}"}) {
		t.Fatalf("rules = %q", got)
	}

	for _, release := range releases[:n-1] {
		release()
	}
	if !c.Inserted("g") || len(allRules(doc, "css")) != 2 {
		t.Fatal("content removed before last release")
	}

	releases[n-1]()
	if c.Inserted("g") {
		t.Error("record left after last release")
	}
	if got := allRules(doc, "css"); !slices.Equal(got, []string{".css-p{color:red;}"}) {
		t.Errorf("rules after release = %q", got)
	}

	// clamped
	releases[0]()
	releases[n-1]()
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}

	// stale releases do not touch re-acquired content
	again, err := c.Acquire("", "g", "body{margin:0}")
	if err != nil {
		t.Fatal(err)
	}
	releases[0]()
	if !c.Inserted("g") {
		t.Error("stale release removed re-acquired content")
	}
	again()
	if c.Inserted("g") || len(allRules(doc, "css")) != 1 {
		t.Error("re-acquired content not removed")
	}
}

func TestCache_AcquirePresent(t *testing.T) {
	doc := surface.New()
	c := newBrowser(t, doc, cache.Options{})

	_ = c.Insert(".css-a", "a", "color:red;")
	release, err := c.Acquire(".css-a", "a", "color:red;")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(allRules(doc, "css")); n != 1 {
		t.Errorf("Acquire() of present content inserted again, %d rules", n)
	}
	release()
	release()
	if !c.Inserted("a") {
		t.Error("release dropped record of present content")
	}
	if n := len(allRules(doc, "css")); n != 1 {
		t.Errorf("release removed rule of main sheet, %d rules", n)
	}
	_ = c.Insert(".css-a", "a", "color:red;")
	if n := len(allRules(doc, "css")); n != 1 {
		t.Errorf("Insert() after release inserted again, %d rules", n)
	}
}

func TestCache_AcquireHydratedAfterRelease(t *testing.T) {
	server, _ := cache.New(nil, cache.Options{}, nil)
	if _, err := server.Acquire("", "g", "body{margin:0}"); err != nil {
		t.Fatal(err)
	}
	tag, err := server.ExtractTag()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := surface.Parse(tag)
	if err != nil {
		t.Fatal(err)
	}
	client := newBrowser(t, doc, cache.Options{})

	for range 3 {
		release, err := client.Acquire("", "g", "body{margin:0}")
		if err != nil {
			t.Fatal(err)
		}
		release()
		if !client.Inserted("g") {
			t.Fatal("release dropped hydrated record")
		}
	}
	if got, want := allRules(doc, "css"), []string{"body{margin:0;}"}; !slices.Equal(got, want) {
		t.Errorf("rules = %q, want %q", got, want)
	}
}

func TestCache_StructuralError(t *testing.T) {
	c := newBrowser(t, surface.New(), cache.Options{Dev: true})

	err := c.Insert(".css-a", "a", "color:red;/* oops")
	var se *css.StructuralTextError
	if !errors.As(err, &se) {
		t.Fatalf("Insert() error = %v, want StructuralTextError", err)
	}
	if c.Inserted("a") {
		t.Error("failed content recorded")
	}

	if _, err := c.Acquire("", "b", "/* oops"); !errors.As(err, &se) {
		t.Errorf("Acquire() error = %v, want StructuralTextError", err)
	}
}

func TestCache_Environment(t *testing.T) {
	browser := newBrowser(t, surface.New(), cache.Options{})
	if _, err := browser.Extract(); !errors.Is(err, cache.ErrEnvironmentMismatch) {
		t.Errorf("Extract() error = %v", err)
	}
	if _, err := browser.ExtractTag(); !errors.Is(err, cache.ErrEnvironmentMismatch) {
		t.Errorf("ExtractTag() error = %v", err)
	}

	server, _ := cache.New(nil, cache.Options{}, nil)
	if err := server.Flush(); !errors.Is(err, cache.ErrEnvironmentMismatch) {
		t.Errorf("Flush() error = %v", err)
	}
}

func TestCache_ExtractAndRehydrate(t *testing.T) {
	insertAll := func(c *cache.Cache) func() {
		t.Helper()
		release, err := c.Acquire("", "g", "@font-face{font-family:x}body{margin:0}")
		if err != nil {
			t.Fatal(err)
		}
		for _, in := range []struct{ sel, id, text string }{
			{".css-a", "a", "display:flex;&:hover{color:red}"},
			{".css-b", "b", "@media print{display:none}"},
			{".css-a", "a", "display:flex;&:hover{color:red}"},
		} {
			if err := c.Insert(in.sel, in.id, in.text); err != nil {
				t.Fatal(err)
			}
		}
		return release
	}

	server, err := cache.New(nil, cache.Options{Nonce: "abc"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	insertAll(server)

	text, err := server.Extract()
	if err != nil {
		t.Fatal(err)
	}
	want := "@font-face{font-family:x;}body{margin:0;}.css-a{display:flex;}.css-a:hover{color:red;}@media print{.css-b{display:none;}}"
	if text != want {
		t.Errorf("Extract() = %q, want %q", text, want)
	}
	tag, err := server.ExtractTag()
	if err != nil {
		t.Fatal(err)
	}
	if want := `<style data-css="css" data-css-ids="g a b" nonce="abc">` + text + `</style>`; tag != want {
		t.Errorf("ExtractTag() = %q, want %q", tag, want)
	}

	doc, err := surface.Parse("<div/>" + tag)
	if err != nil {
		t.Fatal(err)
	}
	client := newBrowser(t, doc, cache.Options{Nonce: "abc"})
	for _, id := range []string{"g", "a", "b"} {
		if !client.Inserted(id) {
			t.Errorf("id %q not rehydrated", id)
		}
	}
	nodes := doc.StyleNodes("css")
	if len(nodes) != 1 || nodes[0].Parent().Tag() != "head" {
		t.Fatal("hydrated node not moved into head")
	}
	before := allRules(doc, "css")

	release := insertAll(client)
	if got := allRules(doc, "css"); !slices.Equal(got, before) {
		t.Errorf("rehydrated instance duplicated rules:\n got %q\nwant %q", got, before)
	}

	// hydrated content is owned by main sheet
	release()
	if err := client.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := len(doc.StyleNodes("css")); n != 0 {
		t.Errorf("Flush() left %d nodes", n)
	}
}

func TestCache_ServerRelease(t *testing.T) {
	server, _ := cache.New(nil, cache.Options{}, nil)
	release, err := server.Acquire("", "k", "@keyframes k{to{opacity:1}}")
	if err != nil {
		t.Fatal(err)
	}
	_ = server.Insert(".css-a", "a", "color:red;")
	release()

	text, _ := server.Extract()
	if text != ".css-a{color:red;}" {
		t.Errorf("Extract() = %q", text)
	}
	if ids := server.IDs(); !slices.Equal(ids, []string{"a"}) {
		t.Errorf("IDs() = %q", ids)
	}
}

func TestCache_Dump(t *testing.T) {
	server, _ := cache.New(nil, cache.Options{Key: "app"}, nil)
	_ = server.Insert(".app-a", "a", "color:red;")
	_, _ = server.Acquire("", "g", "body{margin:0}")

	out := server.Dump()
	for _, want := range []string{"cache app (server)", "misses=2", "  a\n", `rule: ".app-a{color:red;}"`, "g refs=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q:\n%s", want, out)
		}
	}
}
