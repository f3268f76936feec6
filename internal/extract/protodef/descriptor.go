package protodef

import (
	"strings"
	"unicode"

	pb "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

var scalarDescriptorTypes = map[string]descriptorpb.FieldDescriptorProto_Type{
	"double":   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	"float":    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	"int64":    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	"uint64":   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	"int32":    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	"fixed64":  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	"fixed32":  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	"bool":     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	"string":   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"bytes":    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
	"uint32":   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	"sfixed32": descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	"sfixed64": descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	"sint32":   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	"sint64":   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
}

// DescriptorSet converts parsed files into a FileDescriptorSet.
func DescriptorSet(files []*File) *descriptorpb.FileDescriptorSet {
	set := &descriptorpb.FileDescriptorSet{}
	for _, f := range files {
		set.File = append(set.File, Descriptor(f))
	}
	return set
}

// Descriptor converts one parsed file. Type references are resolved against
// the file's own enums; everything else non-scalar is treated as a message.
func Descriptor(f *File) *descriptorpb.FileDescriptorProto {
	enums := map[string]bool{}
	for _, e := range f.Enums {
		enums[e.Name] = true
	}
	walkMessages(f.Messages, "", func(m Message, _ string) {
		for _, e := range m.Enums {
			enums[e.Name] = true
		}
	})

	fd := &descriptorpb.FileDescriptorProto{
		Name:       pb.String(f.Path),
		Dependency: append([]string(nil), f.Imports...),
	}
	if f.Package != "" {
		fd.Package = pb.String(f.Package)
	}
	if f.Syntax != "" {
		fd.Syntax = pb.String(f.Syntax)
	}
	for _, m := range f.Messages {
		fd.MessageType = append(fd.MessageType, messageDescriptor(m, f.Package, enums))
	}
	for _, e := range f.Enums {
		fd.EnumType = append(fd.EnumType, enumDescriptor(e))
	}
	for _, s := range f.Services {
		sd := &descriptorpb.ServiceDescriptorProto{Name: pb.String(s.Name)}
		for _, m := range s.Methods {
			sd.Method = append(sd.Method, &descriptorpb.MethodDescriptorProto{
				Name:            pb.String(m.Name),
				InputType:       pb.String(qualify(f.Package, m.Request)),
				OutputType:      pb.String(qualify(f.Package, m.Response)),
				ClientStreaming: pb.Bool(m.ClientStreaming),
				ServerStreaming: pb.Bool(m.ServerStreaming),
			})
		}
		fd.Service = append(fd.Service, sd)
	}
	return fd
}

func messageDescriptor(m Message, pkg string, enums map[string]bool) *descriptorpb.DescriptorProto {
	d := &descriptorpb.DescriptorProto{Name: pb.String(m.Name)}
	oneofs := map[string]int32{}
	for _, fld := range m.Fields {
		fdp := &descriptorpb.FieldDescriptorProto{
			Name:     pb.String(fld.Name),
			Number:   pb.Int32(int32(fld.Number)),
			JsonName: pb.String(jsonName(fld.Name)),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
		switch fld.Label {
		case "repeated":
			fdp.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		case "required":
			fdp.Label = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED.Enum()
		case "map":
			entry := mapEntry(fld, pkg, enums)
			d.NestedType = append(d.NestedType, entry)
			fdp.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
			fdp.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			fdp.TypeName = pb.String(qualify(pkg, m.Name+"."+entry.GetName()))
			d.Field = append(d.Field, fdp)
			continue
		}
		setType(fdp, fld.Type, pkg, enums)
		if fld.Oneof != "" {
			idx, ok := oneofs[fld.Oneof]
			if !ok {
				idx = int32(len(d.OneofDecl))
				oneofs[fld.Oneof] = idx
				d.OneofDecl = append(d.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: pb.String(fld.Oneof)})
			}
			fdp.OneofIndex = pb.Int32(idx)
		}
		d.Field = append(d.Field, fdp)
	}
	for _, n := range m.Nested {
		d.NestedType = append(d.NestedType, messageDescriptor(n, pkg, enums))
	}
	for _, e := range m.Enums {
		d.EnumType = append(d.EnumType, enumDescriptor(e))
	}
	return d
}

func mapEntry(fld Field, pkg string, enums map[string]bool) *descriptorpb.DescriptorProto {
	key := &descriptorpb.FieldDescriptorProto{
		Name:   pb.String("key"),
		Number: pb.Int32(1),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	setType(key, fld.KeyType, pkg, enums)
	value := &descriptorpb.FieldDescriptorProto{
		Name:   pb.String("value"),
		Number: pb.Int32(2),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	setType(value, fld.Type, pkg, enums)
	return &descriptorpb.DescriptorProto{
		Name:    pb.String(camel(fld.Name) + "Entry"),
		Field:   []*descriptorpb.FieldDescriptorProto{key, value},
		Options: &descriptorpb.MessageOptions{MapEntry: pb.Bool(true)},
	}
}

func setType(fdp *descriptorpb.FieldDescriptorProto, typ, pkg string, enums map[string]bool) {
	if t, ok := scalarDescriptorTypes[typ]; ok {
		fdp.Type = t.Enum()
		return
	}
	simple := typ[strings.LastIndex(typ, ".")+1:]
	if enums[simple] {
		fdp.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
	} else {
		fdp.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
	}
	fdp.TypeName = pb.String(qualify(pkg, typ))
}

func enumDescriptor(e Enum) *descriptorpb.EnumDescriptorProto {
	d := &descriptorpb.EnumDescriptorProto{Name: pb.String(e.Name)}
	for _, v := range e.Values {
		d.Value = append(d.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   pb.String(v.Name),
			Number: pb.Int32(int32(v.Number)),
		})
	}
	return d
}

// qualify returns the fully qualified ".pkg.Type" form used by descriptors.
func qualify(pkg, typ string) string {
	switch {
	case strings.HasPrefix(typ, "."):
		return typ
	case pkg == "" || strings.HasPrefix(typ, pkg+"."):
		return "." + typ
	default:
		return "." + pkg + "." + typ
	}
}

func camel(s string) string {
	var b strings.Builder
	up := true
	for _, r := range s {
		if r == '_' {
			up = true
			continue
		}
		if up {
			r = unicode.ToUpper(r)
			up = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func jsonName(s string) string {
	c := camel(s)
	if c == "" {
		return c
	}
	return strings.ToLower(c[:1]) + c[1:]
}
