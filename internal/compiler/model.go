package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/model"
)

// classDef is a class as written, before names are resolved.
type classDef struct {
	layout model.ClassLayout
	bases  []string
	table  string // joined table for own properties of a subclass
	props  []propDef
	pos    token.Pos
}

// propDef is a property as written. Exactly one of typ, structName,
// array, structArray or navigation is set.
type propDef struct {
	name         string
	typ          string
	structName   string
	array        string
	structArray  string
	navigation   string
	target       string
	dateTimeKind string
	column       string
	pos          token.Pos
}

// CompileModel parses the value holding a "schemas" field into class
// layouts with resolved column mappings.
//
// The CUE value should be the file root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schemas: TestSchema: { alias: "ts", classes: {...} }`)
//	layouts, err := CompileModel(v)
func CompileModel(v cue.Value) ([]model.ClassLayout, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schemasVal := v.LookupPath(cue.ParsePath("schemas"))
	if !schemasVal.Exists() {
		return nil, &CompileError{
			Field:   "schemas",
			Message: "at least one schema is required",
			Pos:     v.Pos(),
		}
	}

	var defs []*classDef
	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		schemaDefs, err := parseSchema(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, schemaDefs...)
	}

	r := newResolver(defs)
	return r.resolve()
}

func parseSchema(name string, v cue.Value) ([]*classDef, error) {
	schema := model.Schema{Name: name}
	alias, err := optionalString(v, "alias")
	if err != nil {
		return nil, err
	}
	schema.Alias = alias
	if schema.Alias == "" {
		schema.Alias = strings.ToLower(name)
	}

	classesVal := v.LookupPath(cue.ParsePath("classes"))
	if !classesVal.Exists() {
		return nil, nil
	}
	iter, err := classesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []*classDef
	for iter.Next() {
		def, err := parseClass(schema, iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseClass(schema model.Schema, name string, v cue.Value) (*classDef, error) {
	field := schema.Name + "." + name
	def := &classDef{
		layout: model.ClassLayout{Schema: schema, Name: name, Type: model.ClassEntity},
		pos:    v.Pos(),
	}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{Field: field + ".id", Message: "class id is required", Pos: v.Pos()}
	}
	id, err := idVal.Uint64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if id == 0 {
		return nil, &CompileError{Field: field + ".id", Message: "class id must be non-zero", Pos: idVal.Pos()}
	}
	def.layout.ID = model.ClassID(id)

	kind, err := optionalString(v, "kind")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "", "entity":
		def.layout.Type = model.ClassEntity
	case "struct":
		def.layout.Type = model.ClassStruct
	case "relationship":
		def.layout.Type = model.ClassRelationship
	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown class kind %q (want entity, struct or relationship)", kind),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}

	if def.bases, err = optionalStrings(v, "bases"); err != nil {
		return nil, err
	}
	if def.table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if def.layout.ClassIDColumn, err = optionalString(v, "classIdColumn"); err != nil {
		return nil, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if propsVal.Exists() {
		list, err := propsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			p, err := parseProperty(fmt.Sprintf("%s.properties[%d]", field, i), list.Value())
			if err != nil {
				return nil, err
			}
			def.props = append(def.props, p)
		}
	}
	return def, nil
}

func parseProperty(field string, v cue.Value) (propDef, error) {
	p := propDef{pos: v.Pos()}
	var err error
	if p.name, err = optionalString(v, "name"); err != nil {
		return p, err
	}
	if p.name == "" {
		return p, &CompileError{Field: field + ".name", Message: "property name is required", Pos: v.Pos()}
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"type", &p.typ},
		{"struct", &p.structName},
		{"array", &p.array},
		{"structArray", &p.structArray},
		{"navigation", &p.navigation},
		{"target", &p.target},
		{"dateTimeKind", &p.dateTimeKind},
		{"column", &p.column},
	}
	for _, f := range fields {
		if *f.dst, err = optionalString(v, f.label); err != nil {
			return p, err
		}
	}

	shapes := 0
	for _, s := range []string{p.typ, p.structName, p.array, p.structArray, p.navigation} {
		if s != "" {
			shapes++
		}
	}
	if shapes != 1 {
		return p, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("property %s needs exactly one of type, struct, array, structArray or navigation", p.name),
			Pos:     v.Pos(),
		}
	}
	return p, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	f := v.LookupPath(cue.ParsePath(label))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalStrings(v cue.Value, label string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(label))
	if !f.Exists() {
		return nil, nil
	}
	list, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// resolver turns classDefs into layouts: class names become ids and
// column mappings are filled in. Struct member mappings need the struct
// class's effective properties, so they are resolved last against a
// catalog of the partially mapped layouts.
type resolver struct {
	defs   []*classDef
	byName map[string]*classDef
}

func newResolver(defs []*classDef) *resolver {
	r := &resolver{defs: defs, byName: make(map[string]*classDef, len(defs)*2)}
	for _, d := range defs {
		r.byName[model.FoldName(d.layout.Schema.Name+"."+d.layout.Name)] = d
		r.byName[model.FoldName(d.layout.Schema.Alias+"."+d.layout.Name)] = d
	}
	return r
}

// lookup resolves a class reference from within schema: either a bare
// class name of that schema or a qualified "Schema.Class"/"alias.Class".
func (r *resolver) lookup(schema model.Schema, ref string) (*classDef, bool) {
	if strings.ContainsAny(ref, ".:") {
		i := strings.LastIndexAny(ref, ".:")
		d, ok := r.byName[model.FoldName(ref[:i]+"."+ref[i+1:])]
		return d, ok
	}
	d, ok := r.byName[model.FoldName(schema.Name+"."+ref)]
	return d, ok
}

func (r *resolver) ref(d *classDef, field, ref string, pos token.Pos) (model.ClassID, error) {
	target, ok := r.lookup(d.layout.Schema, ref)
	if !ok {
		return 0, &CompileError{
			Field:   d.layout.QualifiedName() + "." + field,
			Message: fmt.Sprintf("unknown class %q", ref),
			Pos:     pos,
		}
	}
	return target.layout.ID, nil
}

func (r *resolver) resolve() ([]model.ClassLayout, error) {
	for _, d := range r.defs {
		for _, b := range d.bases {
			id, err := r.ref(d, "bases", b, d.pos)
			if err != nil {
				return nil, err
			}
			d.layout.Bases = append(d.layout.Bases, id)
		}
		// Subclasses inherit the root's table; see catalog.New.
		if d.layout.Type == model.ClassEntity && len(d.bases) == 0 {
			d.layout.Table = d.table
			if d.layout.Table == "" {
				d.layout.Table = d.layout.Schema.Alias + "_" + d.layout.Name
			}
		}
		for _, pd := range d.props {
			p, err := r.property(d, pd)
			if err != nil {
				return nil, err
			}
			d.layout.Properties = append(d.layout.Properties, p)
		}
	}

	layouts := make([]model.ClassLayout, len(r.defs))
	for i, d := range r.defs {
		layouts[i] = d.layout
	}

	shapes, err := catalog.New(layouts)
	if err != nil {
		return nil, &CompileError{Field: "classes", Message: err.Error()}
	}

	// The catalog shares property slices with layouts, so member mappings
	// are collected first and applied once every struct is resolved.
	type update struct {
		class, prop int
		column      model.ColumnMapping
	}
	var updates []update
	for i := range layouts {
		for j, p := range layouts[i].Properties {
			if p.Kind != model.KindStruct {
				continue
			}
			members, err := memberMappings(shapes, p.StructClass, p.Column.Columns[0]+"_", nil)
			if err != nil {
				return nil, &CompileError{
					Field:   layouts[i].QualifiedName() + "." + p.Name,
					Message: err.Error(),
					Pos:     r.defs[i].pos,
				}
			}
			updates = append(updates, update{i, j, model.ColumnMapping{Table: p.Column.Table, Members: members}})
		}
	}
	for _, u := range updates {
		layouts[u.class].Properties[u.prop].Column = u.column
	}

	if errs := Validate(layouts); len(errs) > 0 {
		return nil, &CompileError{Field: errs[0].Field, Message: errs[0].Error()}
	}
	return layouts, nil
}

func (r *resolver) property(d *classDef, pd propDef) (model.PropertyDescriptor, error) {
	p := model.PropertyDescriptor{Name: pd.name}
	field := "properties." + pd.name

	primitive := func(name string) (model.PrimitiveType, error) {
		t, ok := model.ParsePrimitiveType(name)
		if !ok {
			return 0, &CompileError{
				Field:   d.layout.QualifiedName() + "." + field,
				Message: fmt.Sprintf("unknown primitive type %q", name),
				Pos:     pd.pos,
			}
		}
		return t, nil
	}

	var err error
	switch {
	case pd.typ != "":
		p.Kind = model.KindPrimitive
		p.Primitive, err = primitive(pd.typ)
	case pd.array != "":
		p.Kind = model.KindArray
		p.Element = model.KindPrimitive
		p.Primitive, err = primitive(pd.array)
	case pd.structName != "":
		p.Kind = model.KindStruct
		p.StructClass, err = r.ref(d, field, pd.structName, pd.pos)
	case pd.structArray != "":
		p.Kind = model.KindArray
		p.Element = model.KindStruct
		p.StructClass, err = r.ref(d, field, pd.structArray, pd.pos)
	case pd.navigation != "":
		p.Kind = model.KindNavigation
		p.RelClass, err = r.ref(d, field, pd.navigation, pd.pos)
		if err == nil && pd.target != "" {
			p.TargetClass, err = r.ref(d, field, pd.target, pd.pos)
		}
	}
	if err != nil {
		return p, err
	}

	switch strings.ToLower(pd.dateTimeKind) {
	case "", "unspecified":
	case "utc":
		p.DateTimeKind = model.DateTimeUtc
	default:
		return p, &CompileError{
			Field:   d.layout.QualifiedName() + "." + field,
			Message: fmt.Sprintf("unknown dateTimeKind %q (want utc or unspecified)", pd.dateTimeKind),
			Pos:     pd.pos,
		}
	}

	column := pd.column
	if column == "" {
		column = pd.name
	}
	p.Column = columnsFor(p, column)
	if d.table != "" && len(d.bases) > 0 {
		p.Column.Table = d.table
	}
	return p, nil
}

// columnsFor applies the naming rules to base. A struct gets a single
// placeholder column holding base until its members are resolved.
func columnsFor(p model.PropertyDescriptor, base string) model.ColumnMapping {
	switch {
	case p.Kind == model.KindPrimitive && p.Primitive == model.Point2d:
		return model.ColumnMapping{Columns: []string{base + "_X", base + "_Y"}}
	case p.Kind == model.KindPrimitive && p.Primitive == model.Point3d:
		return model.ColumnMapping{Columns: []string{base + "_X", base + "_Y", base + "_Z"}}
	case p.Kind == model.KindNavigation:
		return model.ColumnMapping{Columns: []string{base + "Id", base + "RelECClassId"}}
	default:
		return model.ColumnMapping{Columns: []string{base}}
	}
}

// memberMappings maps every effective member of structClass with prefix,
// recursing into nested structs. visiting guards against a struct that
// contains itself.
func memberMappings(shapes *catalog.Catalog, structClass model.ClassID, prefix string, visiting []model.ClassID) (map[string]model.ColumnMapping, error) {
	for _, v := range visiting {
		if v == structClass {
			name, _ := shapes.QualifiedName(structClass)
			return nil, fmt.Errorf("struct %s contains itself", name)
		}
	}
	visiting = append(visiting, structClass)

	members, err := shapes.EffectiveProperties(structClass)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ColumnMapping, len(members))
	for _, m := range members {
		if m.Kind == model.KindNavigation {
			return nil, fmt.Errorf("struct member %s cannot be a navigation property", m.Name)
		}
		base := prefix + m.Column.Columns[0]
		if m.Kind != model.KindStruct {
			cols := make([]string, len(m.Column.Columns))
			for i, c := range m.Column.Columns {
				cols[i] = prefix + c
			}
			out[model.FoldName(m.Name)] = model.ColumnMapping{Columns: cols}
			continue
		}
		nested, err := memberMappings(shapes, m.StructClass, base+"_", visiting)
		if err != nil {
			return nil, err
		}
		out[model.FoldName(m.Name)] = model.ColumnMapping{Members: nested}
	}
	return out, nil
}
