// Package rpc declares the bizsync gRPC service by hand: message types,
// the service descriptor, a server registration helper and a client stub.
// Messages travel as protobuf described by WireFile. The codec maps each
// Go message onto a dynamic message of the same name, so no generated code
// is needed.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// CodecName is the content subtype both sides must use.
const CodecName = "bizsyncpb"

var (
	timeType = reflect.TypeOf(time.Time{})
	rawType  = reflect.TypeOf(json.RawMessage(nil))
)

type wireCodec struct{}

func (wireCodec) Name() string { return CodecName }

func (wireCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	md, rv, err := wireDescriptor(v)
	if err != nil {
		return nil, err
	}
	m := dynamicpb.NewMessage(md)
	if err := encodeMessage(m, rv); err != nil {
		return nil, fmt.Errorf("rpc: encode %s: %w", md.Name(), err)
	}
	return proto.Marshal(m)
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	md, rv, err := wireDescriptor(v)
	if err != nil {
		return err
	}
	m := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(data, m); err != nil {
		return err
	}
	if err := decodeMessage(m, rv); err != nil {
		return fmt.Errorf("rpc: decode %s: %w", md.Name(), err)
	}
	return nil
}

func init() {
	encoding.RegisterCodec(wireCodec{})
}

func wireDescriptor(v any) (protoreflect.MessageDescriptor, reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, reflect.Value{}, fmt.Errorf("rpc: cannot encode %T", v)
	}
	rv = rv.Elem()
	md := WireFile.Messages().ByName(protoreflect.Name(rv.Type().Name()))
	if md == nil {
		return nil, reflect.Value{}, fmt.Errorf("rpc: no wire message for %T", v)
	}
	return md, rv, nil
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// transcode copies src into dst through the binary form. The two hold the
// same protobuf type, one generated and one dynamic.
func transcode(dst, src proto.Message) error {
	b, err := proto.Marshal(src)
	if err != nil {
		return err
	}
	return proto.Unmarshal(b, dst)
}

func encodeMessage(m protoreflect.Message, rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fd := m.Descriptor().Fields().ByJSONName(jsonName(sf))
		if fd == nil {
			return fmt.Errorf("field %s has no wire field", sf.Name)
		}
		if err := encodeField(m, fd, rv.Field(i)); err != nil {
			return fmt.Errorf("%s: %w", fd.Name(), err)
		}
	}
	return nil
}

func encodeField(m protoreflect.Message, fd protoreflect.FieldDescriptor, fv reflect.Value) error {
	switch {
	case fv.Type() == timeType:
		t := fv.Interface().(time.Time)
		if t.IsZero() {
			return nil
		}
		sub := m.NewField(fd)
		if err := transcode(sub.Message().Interface(), timestamppb.New(t)); err != nil {
			return err
		}
		m.Set(fd, sub)
	case fv.Type() == rawType:
		raw := bytes.TrimSpace(fv.Bytes())
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return nil
		}
		s := &structpb.Struct{}
		if err := s.UnmarshalJSON(raw); err != nil {
			return err
		}
		sub := m.NewField(fd)
		if err := transcode(sub.Message().Interface(), s); err != nil {
			return err
		}
		m.Set(fd, sub)
	case fv.Kind() == reflect.String:
		if fv.String() != "" {
			m.Set(fd, protoreflect.ValueOfString(fv.String()))
		}
	case fv.Kind() == reflect.Bool:
		if fv.Bool() {
			m.Set(fd, protoreflect.ValueOfBool(true))
		}
	case fv.Kind() == reflect.Struct:
		sub := m.NewField(fd)
		if err := encodeMessage(sub.Message(), fv); err != nil {
			return err
		}
		m.Set(fd, sub)
	case fv.Kind() == reflect.Slice && fd.IsList():
		list := m.Mutable(fd).List()
		for i := 0; i < fv.Len(); i++ {
			elem := list.NewElement()
			if err := encodeMessage(elem.Message(), fv.Index(i)); err != nil {
				return err
			}
			list.Append(elem)
		}
	default:
		return fmt.Errorf("unsupported type %s", fv.Type())
	}
	return nil
}

func decodeMessage(m protoreflect.Message, rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fd := m.Descriptor().Fields().ByJSONName(jsonName(sf))
		if fd == nil {
			return fmt.Errorf("field %s has no wire field", sf.Name)
		}
		if err := decodeField(m.Get(fd), fd, rv.Field(i), m.Has(fd)); err != nil {
			return fmt.Errorf("%s: %w", fd.Name(), err)
		}
	}
	return nil
}

func decodeField(v protoreflect.Value, fd protoreflect.FieldDescriptor, fv reflect.Value, present bool) error {
	switch {
	case fv.Type() == timeType:
		if !present {
			return nil
		}
		ts := &timestamppb.Timestamp{}
		if err := transcode(ts, v.Message().Interface()); err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(ts.AsTime()))
	case fv.Type() == rawType:
		if !present {
			return nil
		}
		s := &structpb.Struct{}
		if err := transcode(s, v.Message().Interface()); err != nil {
			return err
		}
		raw, err := s.MarshalJSON()
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(json.RawMessage(raw)))
	case fv.Kind() == reflect.String:
		fv.SetString(v.String())
	case fv.Kind() == reflect.Bool:
		fv.SetBool(v.Bool())
	case fv.Kind() == reflect.Struct:
		if present {
			return decodeMessage(v.Message(), fv)
		}
	case fv.Kind() == reflect.Slice && fd.IsList():
		list := v.List()
		out := reflect.MakeSlice(fv.Type(), list.Len(), list.Len())
		for i := 0; i < list.Len(); i++ {
			if err := decodeMessage(list.Get(i).Message(), out.Index(i)); err != nil {
				return err
			}
		}
		fv.Set(out)
	default:
		return fmt.Errorf("unsupported type %s", fv.Type())
	}
	return nil
}
