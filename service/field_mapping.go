package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmespath/go-jmespath"

	"kepka-migrator/models"
)

// FieldMapping holds the JMESPath expressions that turn one story into a SourceRecord.
// `a || b` falls through empty strings, which gives the title/name fallback.
type FieldMapping struct {
	ID          *jmespath.JMESPath
	Title       *jmespath.JMESPath
	Description *jmespath.JMESPath
	CreatedAt   *jmespath.JMESPath
	Slug        *jmespath.JMESPath
	Assets      *jmespath.JMESPath
}

// NewFieldMapping compiles a mapping from expression strings
func NewFieldMapping(id, title, description, createdAt, slug, assets string) (*FieldMapping, error) {
	m := &FieldMapping{}
	exprs := []struct {
		name string
		src  string
		dst  **jmespath.JMESPath
	}{
		{"id", id, &m.ID},
		{"title", title, &m.Title},
		{"description", description, &m.Description},
		{"created_at", createdAt, &m.CreatedAt},
		{"slug", slug, &m.Slug},
		{"assets", assets, &m.Assets},
	}

	for _, e := range exprs {
		compiled, err := jmespath.Compile(e.src)
		if err != nil {
			return nil, fmt.Errorf("invalid %s expression %q: %w", e.name, e.src, err)
		}
		*e.dst = compiled
	}
	return m, nil
}

// ArtworkMapping reads painting stories
func ArtworkMapping() *FieldMapping {
	return mustMapping(
		"id",
		"content.Title_ENG || name",
		"content.Description_ENG",
		"created_at",
		"slug",
		"content.image.filename",
	)
}

// PhotoshootMapping reads photoshoot stories; the gallery holds the asset list
func PhotoshootMapping() *FieldMapping {
	return mustMapping(
		"id",
		"content.name_eng || content.name_pl || name",
		"content.desc_eng || content.desc_pl",
		"created_at",
		"slug",
		"content.gallery[].filename",
	)
}

func mustMapping(id, title, description, createdAt, slug, assets string) *FieldMapping {
	m, err := NewFieldMapping(id, title, description, createdAt, slug, assets)
	if err != nil {
		panic(err)
	}
	return m
}

// Apply normalizes one story. Missing or malformed fields become empty strings.
func (m *FieldMapping) Apply(kind models.RecordKind, story any) models.SourceRecord {
	return models.SourceRecord{
		ExternalID:  searchString(m.ID, story),
		Kind:        kind,
		Title:       searchString(m.Title, story),
		Description: searchString(m.Description, story),
		CreatedAt:   searchString(m.CreatedAt, story),
		Slug:        searchString(m.Slug, story),
		AssetRefs:   searchStrings(m.Assets, story),
	}
}

func searchString(expr *jmespath.JMESPath, data any) string {
	v, err := expr.Search(data)
	if err != nil {
		return ""
	}
	return scalarString(v)
}

// searchStrings accepts a single string or a list and keeps the non-empty strings
func searchStrings(expr *jmespath.JMESPath, data any) []string {
	v, err := expr.Search(data)
	if err != nil || v == nil {
		return nil
	}

	var result []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				result = append(result, s)
			}
		}
	case string:
		if strings.TrimSpace(t) != "" {
			result = append(result, t)
		}
	}
	return result
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
