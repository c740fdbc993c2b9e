package provider

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"

	"github.com/ZaguanLabs/tlcache"
)

type fakeGoogleClient struct {
	target language.Tag
	opts   *translate.Options
	out    []translate.Translation
	err    error
	closed bool
}

func (f *fakeGoogleClient) Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error) {
	f.target = target
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeGoogleClient) Close() error {
	f.closed = true
	return nil
}

func TestGoogleProvider_Translate(t *testing.T) {
	fake := &fakeGoogleClient{out: []translate.Translation{
		{Text: "Välkommen"},
		{Text: "Bilar &amp; båtar"},
	}}
	p := newGoogleProvider(fake, "")

	out, err := p.Translate(context.Background(), BatchRequest{
		Texts:        []string{"Welcome", "Cars & boats"},
		SourceLocale: "en",
		TargetLocale: "sv",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if out[0] != "Välkommen" || out[1] != "Bilar & båtar" {
		t.Errorf("Unexpected translations: %q", out)
	}
	if fake.target != language.Swedish {
		t.Errorf("Expected Swedish target, got %v", fake.target)
	}
	if fake.opts.Source != language.English || fake.opts.Format != translate.Text || fake.opts.Model != "nmt" {
		t.Errorf("Unexpected options: %+v", fake.opts)
	}
	if p.Name() != "google" || p.Model() != "nmt" {
		t.Errorf("Unexpected identity %s/%s", p.Name(), p.Model())
	}
}

func TestGoogleProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"quota", &googleapi.Error{Code: 429}, true},
		{"backend", &googleapi.Error{Code: 503}, true},
		{"bad key", &googleapi.Error{Code: 403}, false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newGoogleProvider(&fakeGoogleClient{err: tt.err}, "base")

			_, err := p.Translate(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
			var providerErr *tlcache.ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("Expected ProviderError, got %v", err)
			}
			if providerErr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", providerErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestGoogleProvider_CountMismatch(t *testing.T) {
	p := newGoogleProvider(&fakeGoogleClient{out: []translate.Translation{{Text: "Hej"}}}, "")

	_, err := p.Translate(context.Background(), BatchRequest{Texts: []string{"Hello", "Bye"}, TargetLocale: "sv"})
	var mismatch *tlcache.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("Expected CountMismatchError, got %v", err)
	}
}

func TestGoogleProvider_Close(t *testing.T) {
	fake := &fakeGoogleClient{}
	p := newGoogleProvider(fake, "")
	if err := p.Close(); err != nil || !fake.closed {
		t.Error("Close should close the client")
	}
}
