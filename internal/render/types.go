package render

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/designersync/internal/model"
)

// typeCode converts a type reference into jennifer code. Named types are
// qualified so the file picks the import name.
func typeCode(t *model.TypeRef) *jen.Statement {
	switch t.Kind {
	case model.KindNamed:
		if t.PkgPath == "" {
			return jen.Id(t.Name)
		}
		return jen.Qual(t.PkgPath, t.Name)
	case model.KindPointer:
		return jen.Op("*").Add(typeCode(t.Elem))
	case model.KindSlice:
		return jen.Index().Add(typeCode(t.Elem))
	case model.KindArray:
		return jen.Index(jen.Id(t.Name)).Add(typeCode(t.Elem))
	case model.KindMap:
		return jen.Map(typeCode(t.Key)).Add(typeCode(t.Elem))
	default:
		return jen.Id(t.Name)
	}
}

// structTagToMap converts a raw struct tag into a key/value map.
func structTagToMap(tag string) map[string]string {
	m := map[string]string{}
	raw := strings.TrimSpace(strings.Trim(tag, "`"))
	for raw != "" {
		parts := strings.SplitN(raw, ":\"", 2)
		if len(parts) != 2 {
			break
		}

		key := strings.TrimSpace(parts[0])
		rest := parts[1]
		end := strings.Index(rest, "\"")
		if end < 0 {
			break
		}

		m[key] = rest[:end]
		raw = strings.TrimSpace(rest[end+1:])
	}
	return m
}
