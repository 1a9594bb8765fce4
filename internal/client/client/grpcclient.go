package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/rpc"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const pingOK = "OK"

type CacheConfig struct {
	// Size <= 0 disables the response cache.
	Size int
	TTL  time.Duration
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.DirectoryServiceClient
	cache       *expirable.LRU[string, []*models.User]
	closed      atomic.Bool
}

func NewDirectoryClient(endpointURL string, cacheCfg CacheConfig, dialOpts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, cache: newResponseCache(cacheCfg)}
	if err := c.InitGRPCClient(dialOpts...); err != nil {
		return nil, err
	}
	return c, nil
}

func newResponseCache(cfg CacheConfig) *expirable.LRU[string, []*models.User] {
	if cfg.Size <= 0 {
		return nil
	}
	return expirable.NewLRU[string, []*models.User](cfg.Size, nil, cfg.TTL)
}

func (s *GRPCClient) InitGRPCClient(dialOpts ...grpc.DialOption) error {
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)
	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewDirectoryServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) ClearCache() error {
	if s.closed.Load() {
		return ErrClientClosed
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetValue() != pingOK {
		return ErrUnavailable
	}
	return nil
}

// cached serves key from the response cache or runs fetch and remembers its
// result. Callers always get copies, so stamping a returned user does not
// leak into the cache.
func (s *GRPCClient) cached(key string, fetch func() ([]*models.User, error)) ([]*models.User, error) {
	if s.closed.Load() {
		return nil, ErrClientClosed
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return copyUsers(v), nil
		}
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, copyUsers(v))
	}
	return v, nil
}

func copyUsers(in []*models.User) []*models.User {
	out := make([]*models.User, 0, len(in))
	for _, u := range in {
		c := *u
		out = append(out, &c)
	}
	return out
}

func (s *GRPCClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	res, err := s.cached("user:"+id, func() ([]*models.User, error) {
		resp, err := s.client.GetUser(ctx, wrapperspb.String(id))
		if err != nil {
			return nil, s.mapError(err)
		}
		var m rpc.UserMessage
		if err := rpc.DecodeStruct(resp, &m); err != nil {
			return nil, err
		}
		return []*models.User{userFromMessage(m)}, nil
	})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (s *GRPCClient) search(ctx context.Context, key string, call func(context.Context, *wrapperspb.StringValue, ...grpc.CallOption) (*structpb.ListValue, error), arg string) ([]*models.User, error) {
	return s.cached(key, func() ([]*models.User, error) {
		resp, err := call(ctx, wrapperspb.String(arg))
		if err != nil {
			return nil, s.mapError(err)
		}
		msgs, err := rpc.DecodeList[rpc.UserMessage](resp)
		if err != nil {
			return nil, err
		}
		result := make([]*models.User, 0, len(msgs))
		for _, m := range msgs {
			result = append(result, userFromMessage(m))
		}
		return result, nil
	})
}

func (s *GRPCClient) SearchByUsername(ctx context.Context, query string) ([]*models.User, error) {
	return s.search(ctx, "username:"+query, s.client.SearchByUsername, query)
}

func (s *GRPCClient) SearchByPaymentAddress(ctx context.Context, address string) ([]*models.User, error) {
	return s.search(ctx, "payment:"+address, s.client.SearchByPaymentAddress, address)
}

func (s *GRPCClient) GetTimestamp(ctx context.Context) (*models.ServerTime, error) {
	resp, err := s.client.GetTimestamp(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	var m rpc.ServerTimeMessage
	if err := rpc.DecodeStruct(resp, &m); err != nil {
		return nil, err
	}
	return &models.ServerTime{Timestamp: time.Unix(m.Timestamp, 0).UTC(), Token: m.Token}, nil
}

func (s *GRPCClient) ReportUser(ctx context.Context, report *models.Report, ts *models.ServerTime) error {
	if ts == nil {
		return fmt.Errorf("report user[%s]: %w", report.UserAddress, common.ErrorValidation)
	}
	req, err := rpc.EncodeStruct(rpc.ReportMessage{
		UserAddress: report.UserAddress,
		Details:     report.Details,
		Timestamp:   ts.Timestamp.Unix(),
		Token:       ts.Token,
	})
	if err != nil {
		return err
	}
	if _, err := s.client.ReportUser(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) PublishProfile(ctx context.Context, user *models.User) (*models.User, error) {
	req, err := rpc.EncodeStruct(userToMessage(user))
	if err != nil {
		return nil, err
	}
	resp, err := s.client.PutUser(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	var m rpc.UserMessage
	if err := rpc.DecodeStruct(resp, &m); err != nil {
		return nil, err
	}
	// the published profile supersedes anything cached for it
	if s.cache != nil {
		s.cache.Purge()
	}
	return userFromMessage(m), nil
}

func (s *GRPCClient) GetAvatarUploadURL(ctx context.Context, userID string) (string, string, error) {
	resp, err := s.client.GetAvatarUploadURL(ctx, wrapperspb.String(userID))
	if err != nil {
		return "", "", s.mapError(err)
	}
	var m rpc.AvatarUploadMessage
	if err := rpc.DecodeStruct(resp, &m); err != nil {
		return "", "", err
	}
	return m.Key, m.URL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func userFromMessage(m rpc.UserMessage) *models.User {
	return &models.User{
		ToshiID:        m.ToshiID,
		Username:       m.Username,
		PaymentAddress: m.PaymentAddress,
		Name:           m.Name,
		About:          m.About,
		Location:       m.Location,
		Avatar:         m.Avatar,
		IsApp:          m.IsApp,
		Reputation:     m.Reputation,
	}
}

func userToMessage(u *models.User) rpc.UserMessage {
	return rpc.UserMessage{
		ToshiID:        u.ToshiID,
		Username:       u.Username,
		PaymentAddress: u.PaymentAddress,
		Name:           u.Name,
		About:          u.About,
		Location:       u.Location,
		Avatar:         u.Avatar,
		IsApp:          u.IsApp,
		Reputation:     u.Reputation,
	}
}
