package protodef

import (
	"fmt"
	"strings"
)

// Documentation renders a markdown reference of every service and message.
func Documentation(res *Result) string {
	var b strings.Builder
	b.WriteString("# gRPC API Reference\n\n")
	fmt.Fprintf(&b, "- Services: %d (%d methods, %d streaming)\n", res.Statistics.Services.Total,
		res.Statistics.Services.Methods, res.Statistics.Services.Streaming)
	fmt.Fprintf(&b, "- Messages: %d (%d fields, %d nested)\n\n", res.Statistics.Messages.Total,
		res.Statistics.Messages.Fields, res.Statistics.Messages.Nested)

	for _, f := range res.Files {
		for _, s := range f.Services {
			fmt.Fprintf(&b, "## %s\n\n", qualifiedName(f.Package, s.Name))
			fmt.Fprintf(&b, "Defined in `%s`.\n\n", f.Path)
			b.WriteString("| Method | Request | Response |\n|---|---|---|\n")
			for _, m := range s.Methods {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Name,
					streamed(m.Request, m.ClientStreaming), streamed(m.Response, m.ServerStreaming))
			}
			b.WriteString("\n")
		}
	}

	for _, f := range res.Files {
		walkMessages(f.Messages, "", func(m Message, full string) {
			fmt.Fprintf(&b, "### %s\n\n", qualifiedName(f.Package, full))
			if len(m.Fields) == 0 {
				b.WriteString("_No fields._\n\n")
				return
			}
			b.WriteString("| Field | Type | Number |\n|---|---|---|\n")
			for _, fld := range m.Fields {
				typ := fld.Type
				switch fld.Label {
				case "repeated":
					typ = "repeated " + typ
				case "map":
					typ = fmt.Sprintf("map<%s, %s>", fld.KeyType, fld.Type)
				}
				fmt.Fprintf(&b, "| %s | %s | %d |\n", fld.Name, typ, fld.Number)
			}
			b.WriteString("\n")
		})
	}
	return b.String()
}

func streamed(t string, stream bool) string {
	if stream {
		return "stream " + t
	}
	return t
}

func qualifiedName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
