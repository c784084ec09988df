// Package models projects database entities into the JSON shapes served by the API.
package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/jon4hz/newsdesk/internal/database"
	"github.com/samber/lo"
)

// TimeFormat is the layout of projected timestamps.
const TimeFormat = "2006-01-02 15:04:05"

// Fields selects what Project includes.
// Only lists plain fields in output order. A dotted entry such as "user.name"
// selects a field of a relation. Rels selects whole relations by name.
type Fields struct {
	Only []string
	Rels map[string]Fields
}

// OrderedMap is a JSON object that keeps the insertion order of its keys.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap returns an empty map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set stores a value. A new key is appended to the key order.
func (m *OrderedMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in order.
func (m *OrderedMap) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type (
	getter   func(entity any) (any, bool)
	relation func(entity any, f Fields) (any, bool)
)

var userFields = map[string]getter{
	"id":    func(e any) (any, bool) { return e.(*database.User).ID, true },
	"name":  func(e any) (any, bool) { return e.(*database.User).Name, true },
	"about": func(e any) (any, bool) { return e.(*database.User).About, true },
	"email": func(e any) (any, bool) {
		if email := e.(*database.User).Email; email != nil {
			return *email, true
		}
		return nil, true
	},
	"level":       func(e any) (any, bool) { return e.(*database.User).Level, true },
	"is_admin":    func(e any) (any, bool) { return e.(*database.User).IsAdmin(), true },
	"create_data": func(e any) (any, bool) { return formatTime(e.(*database.User).CreateData), true },
}

// Relations recurse into project, so they are set up in init.
var (
	userRels map[string]relation
	newsRels map[string]relation
)

var newsFields = map[string]getter{
	"id":         func(e any) (any, bool) { return e.(*database.News).ID, true },
	"title":      func(e any) (any, bool) { return e.(*database.News).Title, true },
	"content":    func(e any) (any, bool) { return e.(*database.News).Content, true },
	"is_private": func(e any) (any, bool) { return e.(*database.News).IsPrivate, true },
	"user_id":    func(e any) (any, bool) { return e.(*database.News).UserID, true },
	"created_at": func(e any) (any, bool) { return formatTime(e.(*database.News).CreatedAt), true },
}

func init() {
	userRels = map[string]relation{
		"news": func(e any, f Fields) (any, bool) {
			news := e.(*database.User).News
			return lo.Map(news, func(n database.News, _ int) *OrderedMap {
				return project(&n, f)
			}), true
		},
	}
	newsRels = map[string]relation{
		"user": func(e any, f Fields) (any, bool) {
			user := e.(*database.News).User
			if user == nil || user.ID == 0 {
				return nil, false
			}
			return project(user, f), true
		},
	}
}

// Project renders entity with the selected fields.
// Supported entities are users and news, as values, pointers or slices.
// Unknown fields and missing relations are left out.
func Project(entity any, f Fields) any {
	switch e := entity.(type) {
	case database.User:
		return project(&e, f)
	case *database.User:
		return project(e, f)
	case database.News:
		return project(&e, f)
	case *database.News:
		return project(e, f)
	case []database.User:
		return lo.Map(e, func(u database.User, _ int) *OrderedMap { return project(&u, f) })
	case []database.News:
		return lo.Map(e, func(n database.News, _ int) *OrderedMap { return project(&n, f) })
	default:
		return nil
	}
}

func project(entity any, f Fields) *OrderedMap {
	var (
		fields map[string]getter
		rels   map[string]relation
	)
	switch e := entity.(type) {
	case *database.User:
		if e == nil {
			return nil
		}
		fields, rels = userFields, userRels
	case *database.News:
		if e == nil {
			return nil
		}
		fields, rels = newsFields, newsRels
	default:
		return nil
	}

	out := NewOrderedMap()
	nested := make(map[string]*Fields)
	var order []string

	for _, name := range f.Only {
		if rel, sub, ok := strings.Cut(name, "."); ok {
			sel, seen := nested[rel]
			if !seen {
				sel = &Fields{}
				nested[rel] = sel
				order = append(order, rel)
			}
			sel.Only = append(sel.Only, sub)
			continue
		}
		get, ok := fields[name]
		if !ok {
			continue
		}
		if v, ok := get(entity); ok {
			out.Set(name, v)
		}
	}

	// explicit relations follow the dotted ones in name order
	extra := lo.Filter(lo.Keys(f.Rels), func(name string, _ int) bool {
		_, seen := nested[name]
		return !seen
	})
	slices.Sort(extra)
	order = append(order, extra...)

	for _, name := range order {
		sel := Fields{}
		if n, ok := nested[name]; ok {
			sel = *n
		}
		if r, ok := f.Rels[name]; ok {
			sel.Only = append(sel.Only, r.Only...)
			sel.Rels = r.Rels
		}
		rel, ok := rels[name]
		if !ok {
			continue
		}
		if v, ok := rel(entity, sel); ok {
			out.Set(name, v)
		}
	}
	return out
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(TimeFormat)
}
