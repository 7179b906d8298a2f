package record

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// RelationNamer derives a relation name from an entity type name.
type RelationNamer func(entityType string) string

// SameRelations uses the entity type name verbatim, so type Category lives in
// relation "Category".
func SameRelations(entityType string) string {
	return entityType
}

// PluralRelations maps a type name to its plural snake_case form, so
// ZoneWeather lives in "zone_weathers".
func PluralRelations(entityType string) string {
	snake := toSnake(entityType)
	if snake == "" {
		return ""
	}

	parts := strings.Split(snake, "_")
	parts[len(parts)-1] = inflection.Plural(parts[len(parts)-1])
	return strings.Join(parts, "_")
}

// toSnake converts an entity type name to a snake_case relation name, so
// ZoneWeather becomes zone_weather. Runs of non-alphanumeric characters
// collapse into a single underscore.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if (unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower) && !lastUnderscore {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r):
			b.WriteRune(r)
			lastUnderscore = false

		case unicode.IsDigit(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				if !unicode.IsDigit(prev) && prev != '_' && !lastUnderscore {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r)
			lastUnderscore = false

		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
