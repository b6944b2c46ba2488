package validator

import (
	"net/url"
	"path"
	"strings"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// LinkPolicy decides which external link values are acceptable. Checks are
// syntactic only; no request is ever made.
type LinkPolicy struct {
	// Schemes allowed, compared case-insensitively.
	Schemes []string
	// Extensions, when non-empty, restricts the URL path's file extension
	// (".png" or "png" forms are both accepted).
	Extensions []string
}

// DefaultLinkPolicy allows http and https links of any extension.
func DefaultLinkPolicy() LinkPolicy {
	return LinkPolicy{Schemes: []string{"http", "https"}}
}

// Check returns the code and reason for an unacceptable link.
func (p LinkPolicy) Check(raw string) (diag.Code, string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return diag.CodeInvalidExternalLink, "not a valid URL", false
	}
	if u.Scheme == "" {
		return diag.CodeInvalidExternalLink, "relative link; an absolute " + strings.Join(p.Schemes, "/") + " URL is required", false
	}
	if !containsFold(p.Schemes, u.Scheme) {
		return diag.CodeInvalidExternalLink, "scheme " + u.Scheme + " is not allowed (allowed: " + strings.Join(p.Schemes, ", ") + ")", false
	}
	if u.Host == "" {
		return diag.CodeInvalidExternalLink, "link has no host", false
	}
	if len(p.Extensions) > 0 {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
		if ext == "" || !p.allowsExtension(ext) {
			return diag.CodeInvalidLinkExtension, "link must point to a " + strings.Join(p.Extensions, ", ") + " file", false
		}
	}
	return "", "", true
}

func (p LinkPolicy) allowsExtension(ext string) bool {
	for _, e := range p.Extensions {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

func checkLinks(snap *loader.Snapshot, reg *schema.Registry, policy LinkPolicy) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range reg.Order() {
		var links []schema.FieldRef
		for _, ref := range reg.MustEntity(name).Walk() {
			if ref.Field.Kind == schema.KindLinkList {
				links = append(links, ref)
			}
		}
		if len(links) == 0 {
			continue
		}
		for _, rec := range snap.Collection(name).Records {
			for _, ref := range links {
				pos := diag.At(name, rec.Index, ref.Path)
				pos.EntityID = rec.ID
				for _, link := range rec.Strings(ref.Path) {
					if code, reason, ok := policy.Check(link); !ok {
						out = append(out, diag.Errorf(code, pos, "invalid link %q: %s", link, reason))
					}
				}
			}
		}
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
