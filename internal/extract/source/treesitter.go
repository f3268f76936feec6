package source

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// declarationWalker collects declarations from a tree-sitter syntax tree.
type declarationWalker struct {
	src        []byte
	typescript bool
	x          *Extraction
}

func parseDeclarations(ctx context.Context, lang *sitter.Language, src []byte, typescript bool, x *Extraction) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	w := &declarationWalker{src: src, typescript: typescript, x: x}
	w.walk(tree.RootNode())
	return nil
}

func (w *declarationWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

func line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func exported(n *sitter.Node) bool {
	p := n.Parent()
	return p != nil && p.Type() == "export_statement"
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func (w *declarationWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		w.function(n)
	case "class_declaration", "abstract_class_declaration":
		w.class(n)
	case "lexical_declaration", "variable_declaration":
		w.variables(n)
	case "interface_declaration":
		if w.typescript {
			w.iface(n)
		}
	case "type_alias_declaration":
		if w.typescript {
			w.typeAlias(n)
		}
	case "enum_declaration":
		if w.typescript {
			w.enum(n)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *declarationWalker) function(n *sitter.Node) {
	name := w.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	w.x.Functions = append(w.x.Functions, Function{
		Name:   name,
		Params: w.params(n.ChildByFieldName("parameters")),
		Async:  hasChild(n, "async"),
		Line:   line(n),
	})
}

func (w *declarationWalker) class(n *sitter.Node) {
	name := w.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	c := Class{Name: name, Line: line(n), Methods: []string{}}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "class_heritage" {
			c.Extends = heritageName(w.text(child))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			m := body.NamedChild(i)
			if m.Type() != "method_definition" {
				continue
			}
			if mn := w.text(m.ChildByFieldName("name")); mn != "" && mn != "constructor" {
				c.Methods = append(c.Methods, mn)
			}
		}
	}
	w.x.Classes = append(w.x.Classes, c)
}

// heritageName pulls the base class out of "extends Base implements X".
func heritageName(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "extends" && i+1 < len(fields) {
			name := strings.TrimRight(fields[i+1], ",{")
			if j := strings.IndexAny(name, "<("); j >= 0 {
				name = name[:j]
			}
			return name
		}
	}
	return ""
}

func (w *declarationWalker) variables(n *sitter.Node) {
	kind := "var"
	if first := n.Child(0); first != nil {
		kind = first.Type()
	}
	isExported := exported(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		nameNode := d.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := w.text(nameNode)
		w.x.Variables = append(w.x.Variables, Variable{
			Name:     name,
			Kind:     kind,
			Exported: isExported,
			Line:     line(d),
		})

		value := d.ChildByFieldName("value")
		if value == nil {
			continue
		}
		switch value.Type() {
		case "arrow_function", "function", "function_expression":
			params := value.ChildByFieldName("parameters")
			var list []string
			if params == nil {
				if p := value.ChildByFieldName("parameter"); p != nil {
					list = []string{w.text(p)}
				}
			} else {
				list = w.params(params)
			}
			if list == nil {
				list = []string{}
			}
			w.x.Functions = append(w.x.Functions, Function{
				Name:   name,
				Params: list,
				Async:  hasChild(value, "async"),
				Line:   line(d),
			})
		}
	}
}

func (w *declarationWalker) params(n *sitter.Node) []string {
	out := []string{}
	if n == nil {
		return out
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, w.text(p))
		case "assignment_pattern":
			out = append(out, w.text(p.ChildByFieldName("left")))
		case "rest_pattern":
			out = append(out, w.text(p))
		case "required_parameter", "optional_parameter":
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				out = append(out, w.text(pat))
			}
		case "comment":
		default:
			out = append(out, w.text(p))
		}
	}
	return out
}

func (w *declarationWalker) iface(n *sitter.Node) {
	it := Interface{Name: w.text(n.ChildByFieldName("name")), Line: line(n), Properties: []Property{}}
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			p := body.NamedChild(i)
			if p.Type() != "property_signature" {
				continue
			}
			typ := strings.TrimSpace(strings.TrimPrefix(w.text(p.ChildByFieldName("type")), ":"))
			it.Properties = append(it.Properties, Property{
				Name:     w.text(p.ChildByFieldName("name")),
				Type:     typ,
				Optional: hasChild(p, "?"),
			})
		}
	}
	w.x.Interfaces = append(w.x.Interfaces, it)
}

func (w *declarationWalker) typeAlias(n *sitter.Node) {
	w.x.Types = append(w.x.Types, TypeAlias{
		Name:       w.text(n.ChildByFieldName("name")),
		Definition: strings.TrimSpace(w.text(n.ChildByFieldName("value"))),
		Line:       line(n),
	})
}

func (w *declarationWalker) enum(n *sitter.Node) {
	e := Enum{Name: w.text(n.ChildByFieldName("name")), Line: line(n), Values: []string{}}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			v := body.NamedChild(i)
			switch v.Type() {
			case "property_identifier", "identifier":
				e.Values = append(e.Values, w.text(v))
			case "enum_assignment":
				e.Values = append(e.Values, w.text(v.NamedChild(0)))
			}
		}
	}
	w.x.Enums = append(w.x.Enums, e)
}
