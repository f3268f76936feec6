// Package protodef extracts messages, enums and services from protobuf IDL.
package protodef

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emicklei/proto"
)

type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Number  int    `json:"number"`
	Label   string `json:"label,omitempty"`
	KeyType string `json:"keyType,omitempty"`
	Oneof   string `json:"oneof,omitempty"`
	Line    int    `json:"line"`
}

type EnumValue struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

type Enum struct {
	Name   string      `json:"name"`
	Values []EnumValue `json:"values"`
	Line   int         `json:"line"`
}

type Message struct {
	Name   string    `json:"name"`
	Fields []Field   `json:"fields"`
	Nested []Message `json:"nested"`
	Enums  []Enum    `json:"enums"`
	Line   int       `json:"line"`
}

type Method struct {
	Name            string `json:"name"`
	Request         string `json:"request"`
	Response        string `json:"response"`
	ClientStreaming bool   `json:"clientStreaming"`
	ServerStreaming bool   `json:"serverStreaming"`
	Line            int    `json:"line"`
}

type Service struct {
	Name    string   `json:"name"`
	Methods []Method `json:"methods"`
	Line    int      `json:"line"`
}

// File is one parsed .proto file.
type File struct {
	Path     string            `json:"path"`
	Syntax   string            `json:"syntax"`
	Package  string            `json:"package"`
	Imports  []string          `json:"imports"`
	Options  map[string]string `json:"options"`
	Messages []Message         `json:"messages"`
	Enums    []Enum            `json:"enums"`
	Services []Service         `json:"services"`
}

func newFile(path string) *File {
	return &File{
		Path:     path,
		Imports:  []string{},
		Options:  map[string]string{},
		Messages: []Message{},
		Enums:    []Enum{},
		Services: []Service{},
	}
}

// Parse reads content with the protobuf parser. When the parser rejects the
// text the returned File holds what the pattern fallback could recover and
// the error explains why.
func Parse(path, content string) (*File, error) {
	def, err := proto.NewParser(strings.NewReader(content)).Parse()
	if err != nil {
		return parsePatterns(path, content), fmt.Errorf("protodef: %s: %w", path, err)
	}
	f := newFile(path)
	for _, el := range def.Elements {
		switch v := el.(type) {
		case *proto.Syntax:
			f.Syntax = v.Value
		case *proto.Package:
			f.Package = v.Name
		case *proto.Import:
			f.Imports = append(f.Imports, v.Filename)
		case *proto.Option:
			f.Options[v.Name] = v.Constant.Source
		case *proto.Message:
			if !v.IsExtend {
				f.Messages = append(f.Messages, convertMessage(v))
			}
		case *proto.Enum:
			f.Enums = append(f.Enums, convertEnum(v))
		case *proto.Service:
			f.Services = append(f.Services, convertService(v))
		}
	}
	return f, nil
}

func convertMessage(m *proto.Message) Message {
	out := Message{Name: m.Name, Line: m.Position.Line, Fields: []Field{}, Nested: []Message{}, Enums: []Enum{}}
	for _, el := range m.Elements {
		switch v := el.(type) {
		case *proto.NormalField:
			f := Field{Name: v.Name, Type: v.Type, Number: v.Sequence, Line: v.Position.Line}
			switch {
			case v.Repeated:
				f.Label = "repeated"
			case v.Optional:
				f.Label = "optional"
			case v.Required:
				f.Label = "required"
			}
			out.Fields = append(out.Fields, f)
		case *proto.MapField:
			out.Fields = append(out.Fields, Field{
				Name: v.Name, Type: v.Type, KeyType: v.KeyType, Number: v.Sequence,
				Label: "map", Line: v.Position.Line,
			})
		case *proto.Oneof:
			for _, oel := range v.Elements {
				if of, ok := oel.(*proto.OneOfField); ok {
					out.Fields = append(out.Fields, Field{
						Name: of.Name, Type: of.Type, Number: of.Sequence,
						Oneof: v.Name, Line: of.Position.Line,
					})
				}
			}
		case *proto.Message:
			if !v.IsExtend {
				out.Nested = append(out.Nested, convertMessage(v))
			}
		case *proto.Enum:
			out.Enums = append(out.Enums, convertEnum(v))
		}
	}
	return out
}

func convertEnum(e *proto.Enum) Enum {
	out := Enum{Name: e.Name, Line: e.Position.Line, Values: []EnumValue{}}
	for _, el := range e.Elements {
		if v, ok := el.(*proto.EnumField); ok {
			out.Values = append(out.Values, EnumValue{Name: v.Name, Number: v.Integer})
		}
	}
	return out
}

func convertService(s *proto.Service) Service {
	out := Service{Name: s.Name, Line: s.Position.Line, Methods: []Method{}}
	for _, el := range s.Elements {
		if r, ok := el.(*proto.RPC); ok {
			out.Methods = append(out.Methods, Method{
				Name:            r.Name,
				Request:         r.RequestType,
				Response:        r.ReturnsType,
				ClientStreaming: r.StreamsRequest,
				ServerStreaming: r.StreamsReturns,
				Line:            r.Position.Line,
			})
		}
	}
	return out
}

// ---- Pattern fallback ----

var (
	syntaxRe  = regexp.MustCompile(`\bsyntax\s*=\s*["'](proto[23])["']`)
	packageRe = regexp.MustCompile(`\bpackage\s+([\w.]+)\s*;`)
	importRe  = regexp.MustCompile(`\bimport\s+(?:public\s+|weak\s+)?["']([^"']+)["']`)
	messageRe = regexp.MustCompile(`\bmessage\s+(\w+)\s*\{`)
	fieldRe   = regexp.MustCompile(`(?m)^\s*(repeated\s+|optional\s+|required\s+)?([\w.]+)\s+(\w+)\s*=\s*(\d+)`)
	enumRe    = regexp.MustCompile(`\benum\s+(\w+)\s*\{`)
	enumValRe = regexp.MustCompile(`(?m)^\s*(\w+)\s*=\s*(-?\d+)`)
	serviceRe = regexp.MustCompile(`\bservice\s+(\w+)\s*\{`)
	rpcRe     = regexp.MustCompile(`\brpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)
)

func parsePatterns(path, content string) *File {
	f := newFile(path)
	if m := syntaxRe.FindStringSubmatch(content); m != nil {
		f.Syntax = m[1]
	}
	if m := packageRe.FindStringSubmatch(content); m != nil {
		f.Package = m[1]
	}
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		f.Imports = append(f.Imports, m[1])
	}
	lineAt := func(i int) int { return strings.Count(content[:i], "\n") + 1 }

	for _, loc := range messageRe.FindAllStringSubmatchIndex(content, -1) {
		msg := Message{Name: content[loc[2]:loc[3]], Line: lineAt(loc[0]), Fields: []Field{}, Nested: []Message{}, Enums: []Enum{}}
		body := block(content, loc[1]-1)
		for _, m := range fieldRe.FindAllStringSubmatch(body, -1) {
			if m[2] == "option" || m[2] == "reserved" {
				continue
			}
			n, _ := strconv.Atoi(m[4])
			msg.Fields = append(msg.Fields, Field{Name: m[3], Type: m[2], Number: n, Label: strings.TrimSpace(m[1])})
		}
		f.Messages = append(f.Messages, msg)
	}
	for _, loc := range enumRe.FindAllStringSubmatchIndex(content, -1) {
		e := Enum{Name: content[loc[2]:loc[3]], Line: lineAt(loc[0]), Values: []EnumValue{}}
		for _, m := range enumValRe.FindAllStringSubmatch(block(content, loc[1]-1), -1) {
			n, _ := strconv.Atoi(m[2])
			e.Values = append(e.Values, EnumValue{Name: m[1], Number: n})
		}
		f.Enums = append(f.Enums, e)
	}
	for _, loc := range serviceRe.FindAllStringSubmatchIndex(content, -1) {
		s := Service{Name: content[loc[2]:loc[3]], Line: lineAt(loc[0]), Methods: []Method{}}
		for _, m := range rpcRe.FindAllStringSubmatch(block(content, loc[1]-1), -1) {
			s.Methods = append(s.Methods, Method{
				Name: m[1], Request: m[3], Response: m[5],
				ClientStreaming: m[2] != "", ServerStreaming: m[4] != "",
			})
		}
		f.Services = append(f.Services, s)
	}
	return f
}

// block returns the text inside the braces opening at open.
func block(content string, open int) string {
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	if open+1 <= len(content) {
		return content[open+1:]
	}
	return ""
}
