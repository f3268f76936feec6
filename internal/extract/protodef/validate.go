package protodef

import (
	"fmt"
	"strings"

	"github.com/emicklei/proto"
)

// Issue is one lint finding on a .proto file.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

const (
	reservedFrom = 19000
	reservedTo   = 19999
)

// Validate lints content: syntax declaration, field numbering and the range
// protobuf reserves for its own use.
func Validate(content string) []Issue {
	issues := []Issue{}
	def, err := proto.NewParser(strings.NewReader(content)).Parse()
	if err != nil {
		return append(issues, Issue{Message: err.Error()})
	}
	hasSyntax := false
	for _, el := range def.Elements {
		if _, ok := el.(*proto.Syntax); ok {
			hasSyntax = true
		}
	}
	if !hasSyntax {
		issues = append(issues, Issue{Line: 1, Message: "missing syntax declaration"})
	}
	proto.Walk(def, proto.WithMessage(func(m *proto.Message) {
		seen := map[int]string{}
		check := func(name string, n, line int) {
			switch {
			case n < 1:
				issues = append(issues, Issue{Line: line, Message: fmt.Sprintf("%s.%s: field number %d must be positive", m.Name, name, n)})
			case n >= reservedFrom && n <= reservedTo:
				issues = append(issues, Issue{Line: line, Message: fmt.Sprintf("%s.%s: field number %d is reserved", m.Name, name, n)})
			}
			if prev, ok := seen[n]; ok {
				issues = append(issues, Issue{Line: line, Message: fmt.Sprintf("%s.%s: field number %d already used by %s", m.Name, name, n, prev)})
				return
			}
			seen[n] = name
		}
		for _, el := range m.Elements {
			switch v := el.(type) {
			case *proto.NormalField:
				check(v.Name, v.Sequence, v.Position.Line)
			case *proto.MapField:
				check(v.Name, v.Sequence, v.Position.Line)
			case *proto.Oneof:
				for _, oel := range v.Elements {
					if of, ok := oel.(*proto.OneOfField); ok {
						check(of.Name, of.Sequence, of.Position.Line)
					}
				}
			}
		}
	}))
	return issues
}
