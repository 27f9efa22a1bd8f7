package server

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/agentops/internal/security"
	"github.com/nainya/agentops/pkg/agentops"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "agentops.v1.PolicyQA"

const (
	PolicyQA_Answer_FullMethodName     = "/agentops.v1.PolicyQA/Answer"
	PolicyQA_DraftReply_FullMethodName = "/agentops.v1.PolicyQA/DraftReply"
)

// PolicyQAServer is the server API for the PolicyQA service.
// Requests carry {"question": ...} or {"ticket_text": ...}; responses mirror the HTTP JSON bodies.
type PolicyQAServer interface {
	Answer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DraftReply(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func _PolicyQA_Answer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PolicyQAServer).Answer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PolicyQA_Answer_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PolicyQAServer).Answer(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _PolicyQA_DraftReply_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PolicyQAServer).DraftReply(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PolicyQA_DraftReply_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PolicyQAServer).DraftReply(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// PolicyQA_ServiceDesc is the grpc.ServiceDesc for the PolicyQA service
var PolicyQA_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PolicyQAServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Answer", Handler: _PolicyQA_Answer_Handler},
		{MethodName: "DraftReply", Handler: _PolicyQA_DraftReply_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agentops/v1/policy_qa.proto",
}

// RegisterPolicyQAServer registers srv on s
func RegisterPolicyQAServer(s grpc.ServiceRegistrar, srv PolicyQAServer) {
	s.RegisterService(&PolicyQA_ServiceDesc, srv)
}

// PolicyQAClient is the client API for the PolicyQA service
type PolicyQAClient interface {
	Answer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DraftReply(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type policyQAClient struct {
	cc grpc.ClientConnInterface
}

// NewPolicyQAClient creates a client on cc
func NewPolicyQAClient(cc grpc.ClientConnInterface) PolicyQAClient {
	return &policyQAClient{cc: cc}
}

func (c *policyQAClient) Answer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PolicyQA_Answer_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *policyQAClient) DraftReply(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PolicyQA_DraftReply_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ========== PolicyQA implementation ==========

func (s *Server) Answer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.rpc(ctx, agentops.ModeAnswer, req, "question", "answer")
}

func (s *Server) DraftReply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.rpc(ctx, agentops.ModeDraft, req, "ticket_text", "draft")
}

func (s *Server) rpc(ctx context.Context, mode agentops.Mode, req *structpb.Struct, inField, outField string) (*structpb.Struct, error) {
	text := req.GetFields()[inField].GetStringValue()

	user := ""
	if claims, ok := ClaimsFromContext(ctx); ok {
		user = claims.Subject
	}

	result, err := s.ask(ctx, mode, text, user)
	if errors.Is(err, ErrEmptyInput) {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", inField)
	}
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := structpb.NewStruct(resultFields(outField, result))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

// resultFields builds the response body shared by both transports
func resultFields(textField string, r agentops.Result) map[string]interface{} {
	citations := make([]interface{}, len(r.Citations))
	for i, id := range r.Citations {
		citations[i] = id
	}
	passages := make([]interface{}, len(r.Passages))
	for i, p := range r.Passages {
		passages[i] = map[string]interface{}{
			"document_id":    p.DocumentID,
			"document_title": p.DocumentTitle,
			"section":        p.SectionHeading,
			"score":          p.Score,
		}
	}
	return map[string]interface{}{
		textField:   r.Text,
		"citations": citations,
		"passages":  passages,
	}
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrFeatureDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, ErrEmptyInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Errorf(codes.Internal, "policy search failed: %v", err)
	}
}

// AuthInterceptor verifies the authorization metadata on PolicyQA calls.
// Health and reflection calls pass through.
func AuthInterceptor(v *security.Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		claims, err := v.VerifyHeader(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(withClaims(ctx, claims), req)
	}
}

// NewGRPCServer builds a gRPC server with the PolicyQA, health and reflection services registered.
// Health reports SERVING for the service once registration completes.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(4 * 1024 * 1024),
		grpc.ChainUnaryInterceptor(
			GrpcMetricsInterceptor(s.metrics, s.log),
			AuthInterceptor(s.verifier),
		),
	}, opts...)

	gs := grpc.NewServer(opts...)
	RegisterPolicyQAServer(gs, s)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if s.Ready() {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(ServiceName, serving)
	hs.SetServingStatus("", serving)

	return gs, hs
}
