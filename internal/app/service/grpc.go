package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

const (
	moderationServiceName       = "moderation.v1.ModerationService"
	methodModerateContent       = "/" + moderationServiceName + "/ModerateContent"
	methodAnalyzeCrisis         = "/" + moderationServiceName + "/AnalyzeCrisis"
	methodStreamModerateContent = "/" + moderationServiceName + "/StreamModerateContent"
)

// ModerationServiceServer gRPC服务接口，消息统一使用 google.protobuf.Struct
type ModerationServiceServer interface {
	ModerateContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AnalyzeCrisis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	StreamModerateContent(stream grpc.ServerStream) error
}

// ModerationServiceDesc gRPC服务描述
var ModerationServiceDesc = grpc.ServiceDesc{
	ServiceName: moderationServiceName,
	HandlerType: (*ModerationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ModerateContent", Handler: moderateContentHandler},
		{MethodName: "AnalyzeCrisis", Handler: analyzeCrisisHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamModerateContent",
			Handler:       streamModerateContentHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "moderation/v1/moderation.proto",
}

// GRPCServer gRPC服务实现
type GRPCServer struct {
	service *ModerationService
	logger  *zap.SugaredLogger
}

// RegisterGRPCServer 注册gRPC服务
func RegisterGRPCServer(server *grpc.Server, service *ModerationService, logger *zap.SugaredLogger) {
	server.RegisterService(&ModerationServiceDesc, &GRPCServer{
		service: service,
		logger:  logger,
	})
}

// ModerateContent 审核单条内容
func (s *GRPCServer) ModerateContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.service.ModerateContent(ctx, stringField(req, "content"), stringField(req, "user_id"), model.ContentType(stringField(req, "content_type")))
	if err != nil {
		return nil, s.toStatus("failed to moderate content", err)
	}
	return toStruct(result)
}

// AnalyzeCrisis 危机分析
func (s *GRPCServer) AnalyzeCrisis(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	message := stringField(req, "message")
	if message == "" {
		return nil, status.Error(codes.InvalidArgument, "message cannot be empty")
	}
	return toStruct(s.service.AnalyzeCrisisContent(message))
}

// StreamModerateContent 实时流式审核
func (s *GRPCServer) StreamModerateContent(stream grpc.ServerStream) error {
	if err := s.service.StreamModerate(&streamWrapper{stream: stream}); err != nil {
		return s.toStatus("stream moderation failed", err)
	}
	return nil
}

// toStatus 将业务错误转换为gRPC状态
func (s *GRPCServer) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidContentType),
		errors.Is(err, ErrAnonymousNotAllowed),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, config.ErrInvalidConfig):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	s.logger.Errorf("%s: %v", msg, err)
	return status.Errorf(codes.Internal, "%s: %v", msg, err)
}

// streamWrapper 将 grpc.ServerStream 适配为 model.ModerationStream
type streamWrapper struct {
	stream grpc.ServerStream
}

// Send 发送结果
func (w *streamWrapper) Send(result *model.ModerationResult) error {
	out, err := toStruct(result)
	if err != nil {
		return err
	}
	return w.stream.SendMsg(out)
}

// Recv 接收请求
func (w *streamWrapper) Recv() (*model.ModerationRequest, error) {
	in := new(structpb.Struct)
	if err := w.stream.RecvMsg(in); err != nil {
		return nil, err
	}
	return &model.ModerationRequest{
		Content:     stringField(in, "content"),
		UserID:      stringField(in, "user_id"),
		ContentType: model.ContentType(stringField(in, "content_type")),
	}, nil
}

// Context 获取上下文
func (w *streamWrapper) Context() context.Context {
	return w.stream.Context()
}

func moderateContentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ModerationServiceServer).ModerateContent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodModerateContent}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ModerationServiceServer).ModerateContent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func analyzeCrisisHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ModerationServiceServer).AnalyzeCrisis(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAnalyzeCrisis}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ModerationServiceServer).AnalyzeCrisis(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func streamModerateContentHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(ModerationServiceServer).StreamModerateContent(stream)
}

// ModerationClient gRPC客户端
type ModerationClient struct {
	cc grpc.ClientConnInterface
}

// NewModerationClient 创建gRPC客户端
func NewModerationClient(cc grpc.ClientConnInterface) *ModerationClient {
	return &ModerationClient{cc: cc}
}

// ModerateContent 调用单条审核
func (c *ModerationClient) ModerateContent(ctx context.Context, req *model.ModerationRequest, opts ...grpc.CallOption) (*model.ModerationResult, error) {
	in, err := requestStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodModerateContent, in, out, opts...); err != nil {
		return nil, err
	}
	var result model.ModerationResult
	if err := fromStruct(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeCrisis 调用危机分析
func (c *ModerationClient) AnalyzeCrisis(ctx context.Context, message string, opts ...grpc.CallOption) (*model.CrisisAnalysis, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"message": message})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodAnalyzeCrisis, in, out, opts...); err != nil {
		return nil, err
	}
	var analysis model.CrisisAnalysis
	if err := fromStruct(out, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// StreamModerateContent 打开双向流
func (c *ModerationClient) StreamModerateContent(ctx context.Context, opts ...grpc.CallOption) (*ModerationClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &ModerationServiceDesc.Streams[0], methodStreamModerateContent, opts...)
	if err != nil {
		return nil, err
	}
	return &ModerationClientStream{stream: stream}, nil
}

// ModerationClientStream 客户端流
type ModerationClientStream struct {
	stream grpc.ClientStream
}

// Send 发送审核请求
func (s *ModerationClientStream) Send(req *model.ModerationRequest) error {
	in, err := requestStruct(req)
	if err != nil {
		return err
	}
	return s.stream.SendMsg(in)
}

// Recv 接收审核结果
func (s *ModerationClientStream) Recv() (*model.ModerationResult, error) {
	out := new(structpb.Struct)
	if err := s.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	var result model.ModerationResult
	if err := fromStruct(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CloseSend 结束发送
func (s *ModerationClientStream) CloseSend() error {
	return s.stream.CloseSend()
}

func requestStruct(req *model.ModerationRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"content":      req.Content,
		"user_id":      req.UserID,
		"content_type": string(req.ContentType),
	})
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// toStruct 经 JSON 转换为 Struct，字段名与 HTTP 接口一致
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
