package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ecreader/internal/model"
)

// ErrInvalidHierarchy is wrapped by every construction error.
var ErrInvalidHierarchy = errors.New("invalid class hierarchy")

// Catalog is the immutable Class Layout Catalog.
type Catalog struct {
	classes map[model.ClassID]*model.ClassLayout
	ids     []model.ClassID // ascending

	// Memoized at construction.
	names  map[model.ClassID]string
	chains map[model.ClassID][]*model.ClassLayout
	byName map[string]model.ClassID
}

// New builds a catalog from layouts.
//
// Construction rejects duplicate ids, bases that name unknown classes and
// inheritance cycles, so every ancestor chain the catalog hands out is
// finite. Entities that declare no table inherit the table (and
// discriminator column) of their nearest base that has one.
func New(layouts []model.ClassLayout) (*Catalog, error) {
	c := &Catalog{
		classes: make(map[model.ClassID]*model.ClassLayout, len(layouts)),
		names:   make(map[model.ClassID]string, len(layouts)),
		chains:  make(map[model.ClassID][]*model.ClassLayout, len(layouts)),
		byName:  make(map[string]model.ClassID, len(layouts)*2),
	}

	for i := range layouts {
		l := layouts[i]
		if l.ID == 0 {
			return nil, fmt.Errorf("%w: class %q has no id", ErrInvalidHierarchy, l.QualifiedName())
		}
		if prev, dup := c.classes[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate class id %d (%s, %s)",
				ErrInvalidHierarchy, l.ID, prev.QualifiedName(), l.QualifiedName())
		}
		c.classes[l.ID] = &l
		c.names[l.ID] = l.QualifiedName()
		c.ids = append(c.ids, l.ID)
	}
	slices.Sort(c.ids)

	graph := make(baseGraph, len(c.classes))
	for _, id := range c.ids {
		l := c.classes[id]
		for _, base := range l.Bases {
			if _, ok := c.classes[base]; !ok {
				return nil, fmt.Errorf("%w: class %s names unknown base %d",
					ErrInvalidHierarchy, l.QualifiedName(), base)
			}
		}
		graph[id] = l.Bases
	}
	if cycle := findCycle(graph); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHierarchy, formatCycle(cycle, c.names))
	}

	for _, id := range c.ids {
		c.chains[id] = c.linearize(id)
	}
	for _, id := range c.ids {
		c.inheritTable(c.classes[id])
	}

	for _, id := range c.ids {
		l := c.classes[id]
		keys := []string{nameKey(l.Schema.Name, l.Name)}
		if l.Schema.Alias != "" && !model.SameName(l.Schema.Alias, l.Schema.Name) {
			keys = append(keys, nameKey(l.Schema.Alias, l.Name))
		}
		for _, key := range keys {
			if other, taken := c.byName[key]; taken {
				return nil, fmt.Errorf("%w: classes %s and %s share the name %q",
					ErrInvalidHierarchy, c.names[other], c.names[id], key)
			}
			c.byName[key] = id
		}
	}

	return c, nil
}

// linearize walks the bases depth-first in declaration order and emits each
// class after its bases, so the chain is most-base first and the class
// itself comes last. Classes reachable along several paths appear once.
func (c *Catalog) linearize(id model.ClassID) []*model.ClassLayout {
	var chain []*model.ClassLayout
	seen := make(map[model.ClassID]bool)
	var visit func(model.ClassID)
	visit = func(cur model.ClassID) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		l := c.classes[cur]
		for _, base := range l.Bases {
			visit(base)
		}
		chain = append(chain, l)
	}
	visit(id)
	return chain
}

func (c *Catalog) inheritTable(l *model.ClassLayout) {
	if l.Type != model.ClassEntity || l.Table != "" {
		return
	}
	chain := c.chains[l.ID]
	for i := len(chain) - 2; i >= 0; i-- {
		if chain[i].Table != "" {
			l.Table = chain[i].Table
			l.ClassIDColumn = chain[i].ClassIDColumn
			return
		}
	}
}

func nameKey(schema, class string) string {
	return model.FoldName(schema) + "." + model.FoldName(class)
}

// Resolve returns the layout for id.
func (c *Catalog) Resolve(id model.ClassID) (*model.ClassLayout, error) {
	l, ok := c.classes[id]
	if !ok {
		return nil, model.NewUnknownClassError(id)
	}
	return l, nil
}

// AncestorChain returns the linearized ancestors of id including id itself,
// most-base first. Callers must not modify the returned slice.
func (c *Catalog) AncestorChain(id model.ClassID) ([]*model.ClassLayout, error) {
	chain, ok := c.chains[id]
	if !ok {
		return nil, model.NewUnknownClassError(id)
	}
	return chain, nil
}

// QualifiedName returns "Schema.Class" for id.
func (c *Catalog) QualifiedName(id model.ClassID) (string, error) {
	name, ok := c.names[id]
	if !ok {
		return "", model.NewUnknownClassError(id)
	}
	return name, nil
}

// LookupClass resolves "Schema.Class" or "alias.Class" (":" is accepted as
// the separator too). Matching is case-insensitive.
func (c *Catalog) LookupClass(name string) (model.ClassID, error) {
	i := strings.LastIndexAny(name, ".:")
	if i <= 0 || i == len(name)-1 {
		return 0, model.NewUnknownClassNameError(name)
	}
	id, ok := c.byName[nameKey(strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:]))]
	if !ok {
		return 0, model.NewUnknownClassNameError(name)
	}
	return id, nil
}

// FindProperty returns the most-derived declaration of name visible on id.
// The pseudo-properties ECInstanceId and ECClassId are not declarations and
// are never returned.
func (c *Catalog) FindProperty(id model.ClassID, name string) (*model.PropertyDescriptor, bool, error) {
	chain, err := c.AncestorChain(id)
	if err != nil {
		return nil, false, err
	}
	key := model.FoldName(name)
	for i := len(chain) - 1; i >= 0; i-- {
		props := chain[i].Properties
		for j := range props {
			if model.FoldName(props[j].Name) == key {
				return &props[j], true, nil
			}
		}
	}
	return nil, false, nil
}

// EffectiveProperties returns every property visible on id, base-class
// properties first. A derived redeclaration replaces the inherited entry in
// place, keeping the base position but the derived descriptor.
func (c *Catalog) EffectiveProperties(id model.ClassID) ([]model.PropertyDescriptor, error) {
	chain, err := c.AncestorChain(id)
	if err != nil {
		return nil, err
	}
	var props []model.PropertyDescriptor
	index := make(map[string]int)
	for _, l := range chain {
		for _, p := range l.Properties {
			key := model.FoldName(p.Name)
			if i, shadowed := index[key]; shadowed {
				props[i] = p
				continue
			}
			index[key] = len(props)
			props = append(props, p)
		}
	}
	if props == nil {
		props = []model.PropertyDescriptor{}
	}
	return props, nil
}

// Classes returns every layout in ascending id order.
func (c *Catalog) Classes() []*model.ClassLayout {
	out := make([]*model.ClassLayout, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.classes[id])
	}
	return out
}
