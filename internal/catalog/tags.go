package catalog

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"bookmarks/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTags trims and lowercases raw tag names, drops blanks and
// duplicates, and returns the remaining names sorted.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		name := strings.ToLower(strings.TrimSpace(r))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// reconcileTags splits normalized names into tags that exist and names that
// do not. It never creates tags.
func (s *Service) reconcileTags(ctx context.Context, names []string) ([]models.Tag, []string, error) {
	if len(names) == 0 {
		return []models.Tag{}, []string{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	known, err := s.storage.TagsBySlugs(ctx, names)
	if err != nil {
		return nil, nil, err
	}

	knownSlugs := make(map[string]struct{}, len(known))
	for _, t := range known {
		knownSlugs[t.Slug] = struct{}{}
	}

	pending := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := knownSlugs[name]; !ok {
			pending = append(pending, name)
		}
	}
	return known, pending, nil
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a tag slug from a display name: accents are folded to
// ASCII, other punctuation is dropped, runs of whitespace and hyphens become
// one hyphen, and the result is lowercased.
//
//	"Django REST Framework" -> "django-rest-framework"
func Slugify(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-_")
}
