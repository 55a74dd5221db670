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

package cparse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	sitterc "github.com/smacker/go-tree-sitter/c"
)

// ParseTreeSitter parses a preprocessed C translation unit with
// tree-sitter's C grammar and walks top-level declarations into a Program.
// Declarations this walker does not recognize (nested functions, statics
// inside functions, anything below top level) are simply not collected;
// that is a parser-fidelity limit of this concrete backend, not a core
// engine concern (the core only ever sees what Program exposes).
//
// Each collected declaration carries its name, identifier span and source
// text only: dependency lists, Callees, Params, IsStructAlias and
// InitializerSpan are left at their zero values. Syntax errors inside the
// unit are not reported; tree-sitter recovers and unrecognized nodes are
// skipped.
func ParseTreeSitter(ctx context.Context, name string, src []byte) (*Program, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(sitterc.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("cparse: tree-sitter parse failed: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("cparse: tree-sitter returned no tree")
	}

	prog := NewProgram(name, src)
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		walkTopLevel(prog, src, child)
	}
	return prog, nil
}

func walkTopLevel(prog *Program, src []byte, n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "type_definition":
		collectTypedef(prog, src, n)
	case "struct_specifier", "union_specifier":
		collectStruct(prog, src, n)
	case "declaration":
		collectVariable(prog, src, n)
	case "function_definition":
		collectFunction(prog, src, n)
	}
}

func spanOf(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

func collectTypedef(prog *Program, src []byte, n *sitter.Node) {
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return
	}
	name := textOf(src, declarator)
	prog.AddTypedef(&TypedefDecl{
		Name:       name,
		Identifier: spanOf(declarator),
		Content:    textOf(src, n),
	})
}

func collectStruct(prog *Program, src []byte, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	prog.AddStruct(&StructDecl{
		Name:       textOf(src, nameNode),
		IsStruct:   n.Type() == "struct_specifier",
		Identifier: spanOf(nameNode),
		Content:    textOf(src, n),
	})
}

func collectVariable(prog *Program, src []byte, n *sitter.Node) {
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return
	}
	ident := declarator
	for ident.Type() != "identifier" && ident.ChildCount() > 0 {
		ident = ident.Child(0)
	}
	prog.AddVariable(&VariableDecl{
		Name:       textOf(src, ident),
		Identifier: spanOf(ident),
		Content:    textOf(src, n),
	})
}

func collectFunction(prog *Program, src []byte, n *sitter.Node) {
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return
	}
	ident := declarator
	for ident.Type() != "identifier" && ident.ChildCount() > 0 {
		ident = ident.Child(0)
	}
	prog.AddFunction(&FunctionDecl{
		Name:       textOf(src, ident),
		Identifier: spanOf(ident),
		Content:    textOf(src, n),
	})
}

func textOf(src []byte, n *sitter.Node) string {
	return string(src[n.StartByte():n.EndByte()])
}

// FindIdentifierSpans returns the span of every occurrence of an exact
// identifier token in src, used to implement the "in" -> "in_data" rename
// (spec §4.H / §8 scenario 6).
func FindIdentifierSpans(src []byte, name string) []Span {
	parser := sitter.NewParser()
	parser.SetLanguage(sitterc.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return nil
	}
	var spans []Span
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "identifier" && textOf(src, n) == name {
			spans = append(spans, spanOf(n))
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return spans
}
