package rpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// WireFile is the protobuf schema of the service, bizsync/v1/sync.proto.
// Message names match the Go types in messages.go and field JSON names
// match their json tags.
var WireFile protoreflect.FileDescriptor

const (
	wirePackage   = "bizsync.v1"
	timestampType = ".google.protobuf.Timestamp"
	structType    = ".google.protobuf.Struct"
	documentType  = "." + wirePackage + ".Document"
)

type wireField struct {
	name     string
	kind     descriptorpb.FieldDescriptorProto_Type
	typeName string
	repeated bool
}

func str(name string) wireField     { return wireField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_STRING} }
func boolean(name string) wireField { return wireField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_BOOL} }

func msg(name, typeName string) wireField {
	return wireField{name: name, kind: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, typeName: typeName}
}

var wireMessages = []struct {
	name   string
	fields []wireField
}{
	{"Document", []wireField{str("id"), str("user_id"), boolean("deleted"), msg("updated_at", timestampType), msg("data", structType)}},
	{"RegisterUserRequest", []wireField{str("username"), str("password")}},
	{"RegisterUserResponse", []wireField{str("user_id")}},
	{"LoginRequest", []wireField{str("username"), str("password")}},
	{"LoginResponse", []wireField{str("user_id"), str("role"), str("access_token"), str("refresh_token")}},
	{"RefreshTokenRequest", []wireField{str("refresh_token")}},
	{"RefreshTokenResponse", []wireField{str("access_token"), str("refresh_token")}},
	{"PingRequest", nil},
	{"PingResponse", []wireField{str("status")}},
	{"SystemStatusRequest", nil},
	{"SystemStatusResponse", []wireField{boolean("maintenance"), msg("server_time", timestampType)}},
	{"QueryRequest", []wireField{str("table")}},
	{"QueryResponse", []wireField{{name: "documents", kind: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, typeName: documentType, repeated: true}}},
	{"UpsertRequest", []wireField{str("table"), msg("document", documentType)}},
	{"UpsertResponse", nil},
	{"DeleteRequest", []wireField{str("table"), str("id")}},
	{"DeleteResponse", []wireField{boolean("deleted")}},
	{"PresignSnapshotRequest", nil},
	{"PresignSnapshotResponse", []wireField{str("key"), str("url")}},
}

func wireFileProto() *descriptorpb.FileDescriptorProto {
	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ServiceDesc.Metadata.(string)),
		Package: proto.String(wirePackage),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			structpb.File_google_protobuf_struct_proto.Path(),
			timestamppb.File_google_protobuf_timestamp_proto.Path(),
		},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/bizdash/bizsync/internal/rpc"),
		},
	}
	for _, m := range wireMessages {
		dp := &descriptorpb.DescriptorProto{Name: proto.String(m.name)}
		for i, f := range m.fields {
			label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
			if f.repeated {
				label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
			}
			fp := &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(f.name),
				Number: proto.Int32(int32(i + 1)),
				Label:  label.Enum(),
				Type:   f.kind.Enum(),
			}
			if f.typeName != "" {
				fp.TypeName = proto.String(f.typeName)
			}
			dp.Field = append(dp.Field, fp)
		}
		fd.MessageType = append(fd.MessageType, dp)
	}

	svc := &descriptorpb.ServiceDescriptorProto{Name: proto.String("SyncService")}
	for _, m := range ServiceDesc.Methods {
		svc.Method = append(svc.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String("." + wirePackage + "." + m.MethodName + "Request"),
			OutputType: proto.String("." + wirePackage + "." + m.MethodName + "Response"),
		})
	}
	fd.Service = append(fd.Service, svc)
	return fd
}

func init() {
	f, err := protodesc.NewFile(wireFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("rpc: build wire schema: %v", err))
	}
	WireFile = f
}
