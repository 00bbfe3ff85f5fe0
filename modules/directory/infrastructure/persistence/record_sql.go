package persistence

import (
	"errors"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
)

// recordTable describes how a collection maps onto its SQL table. Names come
// from the fixed collection list, never from input.
type recordTable struct {
	name     string
	parent   string
	hasLevel bool
}

func tableFor(c types.Collection) (recordTable, error) {
	if !c.Valid() {
		return recordTable{}, errors.New("persistence: unknown collection " + string(c))
	}
	return recordTable{
		name:     string(c),
		parent:   c.ParentColumn(),
		hasLevel: c == types.CollectionDesignations,
	}, nil
}

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

// selectColumns lists id, name, parent, level, order, created_at, updated_at
// in scan order.
func (t recordTable) selectColumns(castText string) string {
	parent := "''"
	if t.parent != "" {
		parent = "COALESCE(" + t.parent + castText + ", '')"
	}
	level := "0"
	if t.hasLevel {
		level = "level"
	}
	return "id" + castText + ", name, " + parent + ", " + level + `, "order", created_at, updated_at`
}

// where renders the filter. ok is false when the filter can match nothing.
func (t recordTable) where(f ports.Filter, ph placeholder, castUUID string) (clause string, args []any, ok bool) {
	var conds []string
	if f.ID != "" {
		args = append(args, f.ID)
		conds = append(conds, "id = "+ph(len(args))+castUUID)
	}
	if f.ParentID != nil {
		switch {
		case t.parent == "":
			if *f.ParentID != "" {
				return "", nil, false
			}
		case *f.ParentID == "":
			conds = append(conds, t.parent+" IS NULL")
		default:
			args = append(args, *f.ParentID)
			conds = append(conds, t.parent+" = "+ph(len(args))+castUUID)
		}
	}
	if len(conds) == 0 {
		return "", args, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func orderClause(t recordTable, orderBy []ports.OrderBy) string {
	parent := ""
	if t.parent != "" {
		parent = t.parent + " NULLS FIRST, "
	}
	if len(orderBy) > 0 && orderBy[0] == ports.OrderByName {
		return " ORDER BY name, " + parent + `"order", id`
	}
	return " ORDER BY " + parent + `"order", name, id`
}

// setClauses renders the SET list for a patch, starting parameters after
// offset.
func (t recordTable) setClauses(p ports.Patch, ph placeholder, offset int, castUUID string) ([]string, []any) {
	var sets []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, strings.Replace(expr, "?", ph(offset+len(args)), 1))
	}
	if p.Name != nil {
		add("name = ?", strings.TrimSpace(*p.Name))
	}
	if p.ParentID != nil && t.parent != "" {
		add(t.parent+" = NULLIF(?, '')"+castUUID, *p.ParentID)
	}
	if p.Level != nil && t.hasLevel {
		add("level = ?", *p.Level)
	}
	if p.Order != nil {
		add(`"order" = ?`, *p.Order)
	}
	return sets, args
}
