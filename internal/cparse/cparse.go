// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cparse is the C-parser collaborator, out of scope per the core
// spec but given a concrete, span-bearing implementation here so the rest
// of the engine has something real to build against. Preprocessor
// directives and macros are never expanded: callers are expected to hand
// in already-preprocessed translation units.
package cparse

import (
	"sort"
)

// TypeVariant distinguishes the three nominal C type kinds.
type TypeVariant int

const (
	Typedef TypeVariant = iota
	StructVariant
	UnionVariant
)

// Span is a byte range into the originating source buffer.
type Span struct {
	Start, End uint32
}

// CustomType is the identity of a C nominal type, totally ordered for
// deterministic iteration (spec §3).
type CustomType struct {
	Name    string
	Variant TypeVariant
}

// Less defines a total order: by variant, then by name.
func (c CustomType) Less(o CustomType) bool {
	if c.Variant != o.Variant {
		return c.Variant < o.Variant
	}
	return c.Name < o.Name
}

// SortCustomTypes sorts a slice in place using Less.
func SortCustomTypes(ts []CustomType) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Less(ts[j]) })
}

// TypeDependency references a CustomType at a specific source span (the
// span of the identifier usage, not the declaration).
type TypeDependency struct {
	Type CustomType
	At   Span
}

// Ref is a reference to a variable or function name at a specific span.
type Ref struct {
	Name string
	At   Span
}

// TypedefDecl is a C typedef declaration.
type TypedefDecl struct {
	Name          string
	Identifier    Span   // span of the typedef's own declared name
	Content       string // full declaration source text
	Dependencies  []TypeDependency
	IsStructAlias bool // true when this typedef is a bare alias of a single already-modeled struct
}

// StructDecl is a C struct or union declaration.
type StructDecl struct {
	Name         string
	IsStruct     bool // false => union
	Identifier   Span
	Content      string
	Dependencies []TypeDependency
}

// VariableDecl is a C global variable declaration.
type VariableDecl struct {
	Name             string
	Identifier       Span
	Content          string
	InitializerSpan  Span // span of just the initializer expression, for the signature-only fallback
	TypeDependencies []TypeDependency
	Dependencies     []Ref
	IsPointer        bool
	IsConst          bool
	IsExported       bool
}

// FunctionDecl is a C function definition.
type FunctionDecl struct {
	Name             string
	Identifier       Span
	Content          string
	Params           int
	TypeDependencies []TypeDependency
	Dependencies     []Ref // referenced globals
	Callees          []Ref // called functions
}

// Program is the parsed translation unit.
type Program struct {
	Name      string
	src       []byte
	typedefs  map[string]*TypedefDecl
	structs   map[string]*StructDecl
	variables map[string]*VariableDecl
	functions map[string]*FunctionDecl
}

func NewProgram(name string, src []byte) *Program {
	return &Program{
		Name:      name,
		src:       src,
		typedefs:  make(map[string]*TypedefDecl),
		structs:   make(map[string]*StructDecl),
		variables: make(map[string]*VariableDecl),
		functions: make(map[string]*FunctionDecl),
	}
}

func (p *Program) Typedefs() map[string]*TypedefDecl   { return p.typedefs }
func (p *Program) Structs() map[string]*StructDecl     { return p.structs }
func (p *Program) Variables() map[string]*VariableDecl { return p.variables }
func (p *Program) Functions() map[string]*FunctionDecl { return p.functions }
func (p *Program) Source() []byte                      { return p.src }

// AddTypedef, AddStruct, AddVariable, AddFunction let a concrete parser
// backend (see ParseTreeSitter) populate the program.
func (p *Program) AddTypedef(t *TypedefDecl)   { p.typedefs[t.Name] = t }
func (p *Program) AddStruct(s *StructDecl)     { p.structs[s.Name] = s }
func (p *Program) AddVariable(v *VariableDecl) { p.variables[v.Name] = v }
func (p *Program) AddFunction(f *FunctionDecl) { p.functions[f.Name] = f }

// CustomTypes returns every nominal type declared in the program, sorted.
func (p *Program) CustomTypes() []CustomType {
	var out []CustomType
	for name := range p.typedefs {
		out = append(out, CustomType{Name: name, Variant: Typedef})
	}
	for name, s := range p.structs {
		v := StructVariant
		if !s.IsStruct {
			v = UnionVariant
		}
		out = append(out, CustomType{Name: name, Variant: v})
	}
	SortCustomTypes(out)
	return out
}

// Slice returns the source text covered by a span.
func (p *Program) Slice(s Span) string {
	if int(s.End) > len(p.src) || s.Start > s.End {
		return ""
	}
	return string(p.src[s.Start:s.End])
}
