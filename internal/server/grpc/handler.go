package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/rpc"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
	"github.com/dmitrijs2005/gophdirectory/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toStatus maps service errors to gRPC status errors. Anything unexpected is
// logged and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidTimestampToken),
		errors.Is(err, common.ErrTimestampExpired),
		errors.Is(err, common.ErrTimestampMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func profileToMessage(p *services.Profile) rpc.UserMessage {
	return rpc.UserMessage{
		ToshiID:        p.ID,
		Username:       p.Username,
		PaymentAddress: p.PaymentAddress,
		Name:           p.Name,
		About:          p.About,
		Location:       p.Location,
		Avatar:         p.AvatarURL,
		IsApp:          p.IsApp,
		Reputation:     p.Reputation,
	}
}

func (s *GRPCServer) encodeProfiles(ctx context.Context, ps []*services.Profile) (*structpb.ListValue, error) {
	msgs := make([]rpc.UserMessage, 0, len(ps))
	for _, p := range ps {
		msgs = append(msgs, profileToMessage(p))
	}
	l, err := rpc.EncodeList(msgs)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return l, nil
}

func (s *GRPCServer) encodeProfile(ctx context.Context, p *services.Profile) (*structpb.Struct, error) {
	st, err := rpc.EncodeStruct(profileToMessage(p))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return st, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	p, err := s.directory.GetUser(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.encodeProfile(ctx, p)
}

func (s *GRPCServer) SearchByUsername(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	ps, err := s.directory.SearchByUsername(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.encodeProfiles(ctx, ps)
}

func (s *GRPCServer) SearchByPaymentAddress(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	ps, err := s.directory.SearchByPaymentAddress(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.encodeProfiles(ctx, ps)
}

func (s *GRPCServer) GetTimestamp(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	ts, token, err := s.directory.IssueTimestamp(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	st, err := rpc.EncodeStruct(rpc.ServerTimeMessage{Timestamp: ts.Unix(), Token: token})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return st, nil
}

func (s *GRPCServer) ReportUser(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var m rpc.ReportMessage
	if err := rpc.DecodeStruct(req, &m); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	report := &models.Report{
		UserAddress: m.UserAddress,
		Details:     m.Details,
		Timestamp:   time.Unix(m.Timestamp, 0).UTC(),
	}
	if _, err := s.directory.SubmitReport(ctx, report, m.Token); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) PutUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var m rpc.UserMessage
	if err := rpc.DecodeStruct(req, &m); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p, err := s.directory.PutUser(ctx, &models.User{
		ID:             m.ToshiID,
		Username:       m.Username,
		PaymentAddress: m.PaymentAddress,
		Name:           m.Name,
		About:          m.About,
		Location:       m.Location,
		IsApp:          m.IsApp,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.encodeProfile(ctx, p)
}

func (s *GRPCServer) GetAvatarUploadURL(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	key, url, err := s.directory.AvatarUploadURL(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	st, err := rpc.EncodeStruct(rpc.AvatarUploadMessage{Key: key, URL: url})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return st, nil
}
