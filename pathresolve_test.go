package staticserve

import (
	"errors"
	"testing"

	"github.com/go-static-serve/staticserve/afero2"
	"github.com/rickb777/expect"
	"github.com/spf13/afero"
)

func newTestResolver(t *testing.T, files map[string]string) *pathResolver {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &pathResolver{
		fs:    afero2.AferoAdapter{Inner: fs},
		mime:  newMimeResolver(),
		cache: true,
		memo:  &indexMemo{},
	}
}

func TestResolveAbsContainment(t *testing.T) {
	p := newTestResolver(t, map[string]string{"/css/a.css": "body{}"})

	cases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"/css/a.css", "/css/a.css", false},
		{"/css/../css/a.css", "/css/a.css", false},
		{"/../../etc/passwd", "", true},
		{"/css/../../secret", "", true},
		{"/./css/./a.css", "/css/a.css", false},
	}

	for i, test := range cases {
		got, err := p.resolveAbs(test.url)
		if test.wantErr {
			expect.Error(err).Info(i).ToHaveOccurred(t)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("case %d: got %v, want ErrNotFound", i, err)
			}
			continue
		}
		expect.Error(err).Info(i).Not().ToHaveOccurred(t)
		expect.String(got).Info(i).ToBe(t, test.want)
	}
}

func TestFindIndexDistinguishesRedirectFromRewrite(t *testing.T) {
	p := newTestResolver(t, map[string]string{
		"/docs/index.html": "<html></html>",
		"/about.html":      "<html></html>",
	})

	target, redirect, found := p.findIndex("/docs", "text/html")
	expect.Any(found).ToBe(t, true)
	expect.Any(redirect).ToBe(t, true)
	expect.String(target).ToBe(t, "/docs/index.html")

	target, redirect, found = p.findIndex("/about", "text/html")
	expect.Any(found).ToBe(t, true)
	expect.Any(redirect).ToBe(t, false)
	expect.String(target).ToBe(t, "/about.html")

	_, _, found = p.findIndex("/nope", "text/html")
	expect.Any(found).ToBe(t, false)
}

func TestResolveDirectoryIndexRedirects(t *testing.T) {
	p := newTestResolver(t, map[string]string{
		"/docs/index.html": "<html></html>",
	})

	outcome, err := p.resolve(&pathRequest{url: "/docs", accept: "text/html", memo: p.memo, cache: true})
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(outcome.redirect).ToBe(t, "/docs/index.html")
	expect.Any(outcome.done).ToBe(t, false)
}

func TestResolveSiblingRewritesInPlace(t *testing.T) {
	p := newTestResolver(t, map[string]string{
		"/about.html": "<html></html>",
	})

	outcome, err := p.resolve(&pathRequest{url: "/about", accept: "text/html", memo: p.memo, cache: true})
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(outcome.abs).ToBe(t, "/about.html")
	expect.String(outcome.redirect).ToBeEmpty(t)
}

func TestResolveMemoizesRedirectDecision(t *testing.T) {
	p := newTestResolver(t, map[string]string{
		"/docs/index.html": "<html></html>",
	})
	req := &pathRequest{url: "/docs", accept: "text/html", memo: p.memo, cache: true}

	first, err := p.resolve(req)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(first.redirect).ToBe(t, "/docs/index.html")

	second, err := p.resolve(req)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(second.redirect).ToBe(t, "/docs/index.html")
	expect.Any(second.done).ToBe(t, false)
}
