package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/dmitrijs2005/gophdirectory/internal/logging"
	"github.com/dmitrijs2005/gophdirectory/internal/rpc"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
	"github.com/dmitrijs2005/gophdirectory/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ---- fake directory ----

type fakeDirectory struct {
	users map[string]*services.Profile
	err   error

	issuedAt time.Time
	token    string

	reports []*models.Report
	tokens  []string
	puts    []*models.User
}

func newFakeDirectory(ps ...*services.Profile) *fakeDirectory {
	f := &fakeDirectory{
		users:    map[string]*services.Profile{},
		issuedAt: time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
		token:    "signed",
	}
	for _, p := range ps {
		f.users[p.ID] = p
	}
	return f
}

func (f *fakeDirectory) GetUser(_ context.Context, id string) (*services.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeDirectory) SearchByUsername(_ context.Context, q string) ([]*services.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*services.Profile
	for _, p := range f.users {
		if len(p.Username) >= len(q) && p.Username[:len(q)] == q {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDirectory) SearchByPaymentAddress(_ context.Context, addr string) ([]*services.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*services.Profile
	for _, p := range f.users {
		if p.PaymentAddress == addr {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDirectory) PutUser(_ context.Context, u *models.User) (*services.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, u)
	if u.ID == "" {
		u.ID = fmt.Sprintf("gen-%d", len(f.puts))
	}
	p := &services.Profile{User: u}
	f.users[u.ID] = p
	return p, nil
}

func (f *fakeDirectory) IssueTimestamp(context.Context) (time.Time, string, error) {
	if f.err != nil {
		return time.Time{}, "", f.err
	}
	return f.issuedAt, f.token, nil
}

func (f *fakeDirectory) SubmitReport(_ context.Context, r *models.Report, token string) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reports = append(f.reports, r)
	f.tokens = append(f.tokens, token)
	return r, nil
}

func (f *fakeDirectory) AvatarUploadURL(_ context.Context, userID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	if _, ok := f.users[userID]; !ok {
		return "", "", common.ErrorNotFound
	}
	return "avatars/" + userID, "https://s3.test/put/" + userID, nil
}

// ---- helpers ----

func newServer(d directorySvc) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, d)
}

func alice() *services.Profile {
	return &services.Profile{
		User:      &models.User{ID: "u-1", Username: "alice", PaymentAddress: "0xa", Reputation: 4.5},
		AvatarURL: "https://s3.test/get/a",
	}
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(newFakeDirectory())
	resp, err := s.Ping(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.GetValue())
}

func TestGetUser_EncodesProfile(t *testing.T) {
	s := newServer(newFakeDirectory(alice()))

	st, err := s.GetUser(context.Background(), wrapperspb.String("u-1"))
	require.NoError(t, err)

	var m rpc.UserMessage
	require.NoError(t, rpc.DecodeStruct(st, &m))
	assert.Equal(t, "u-1", m.ToshiID)
	assert.Equal(t, "alice", m.Username)
	assert.Equal(t, "https://s3.test/get/a", m.Avatar)
	assert.Equal(t, 4.5, m.Reputation)
}

func TestSearch_EmptyResultIsEmptyList(t *testing.T) {
	s := newServer(newFakeDirectory(alice()))

	l, err := s.SearchByPaymentAddress(context.Background(), wrapperspb.String("0xnone"))
	require.NoError(t, err)
	assert.Empty(t, l.GetValues())

	l, err = s.SearchByUsername(context.Background(), wrapperspb.String("al"))
	require.NoError(t, err)
	got, err := rpc.DecodeList[rpc.UserMessage](l)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u-1", got[0].ToshiID)
}

func TestGetTimestamp(t *testing.T) {
	d := newFakeDirectory()
	s := newServer(d)

	st, err := s.GetTimestamp(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	var m rpc.ServerTimeMessage
	require.NoError(t, rpc.DecodeStruct(st, &m))
	assert.Equal(t, d.issuedAt.Unix(), m.Timestamp)
	assert.Equal(t, "signed", m.Token)
}

func TestReportUser_PassesTimestampAndToken(t *testing.T) {
	d := newFakeDirectory(alice())
	s := newServer(d)

	req, err := rpc.EncodeStruct(rpc.ReportMessage{UserAddress: "u-1", Details: "spam", Timestamp: d.issuedAt.Unix(), Token: "signed"})
	require.NoError(t, err)

	_, err = s.ReportUser(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, d.reports, 1)
	assert.True(t, d.reports[0].Timestamp.Equal(d.issuedAt))
	assert.Equal(t, "spam", d.reports[0].Details)
	assert.Equal(t, []string{"signed"}, d.tokens)
}

func TestReportUser_BadPayload(t *testing.T) {
	s := newServer(newFakeDirectory())

	req, err := structpb.NewStruct(map[string]any{"timestamp": "soon"})
	require.NoError(t, err)

	_, err = s.ReportUser(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestPutUser_IgnoresClientAvatar(t *testing.T) {
	d := newFakeDirectory()
	s := newServer(d)

	req, err := rpc.EncodeStruct(rpc.UserMessage{Username: "carol", Avatar: "https://evil.test/x"})
	require.NoError(t, err)

	st, err := s.PutUser(context.Background(), req)
	require.NoError(t, err)

	var m rpc.UserMessage
	require.NoError(t, rpc.DecodeStruct(st, &m))
	assert.Equal(t, "gen-1", m.ToshiID)
	assert.Empty(t, m.Avatar)
	require.Len(t, d.puts, 1)
	assert.Empty(t, d.puts[0].AvatarKey)
}

func TestGetAvatarUploadURL(t *testing.T) {
	s := newServer(newFakeDirectory(alice()))

	st, err := s.GetAvatarUploadURL(context.Background(), wrapperspb.String("u-1"))
	require.NoError(t, err)

	var m rpc.AvatarUploadMessage
	require.NoError(t, rpc.DecodeStruct(st, &m))
	assert.Equal(t, "avatars/u-1", m.Key)
	assert.Equal(t, "https://s3.test/put/u-1", m.URL)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{fmt.Errorf("%w: bad", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrInvalidTimestampToken, codes.InvalidArgument},
		{common.ErrTimestampExpired, codes.InvalidArgument},
		{common.ErrTimestampMismatch, codes.InvalidArgument},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("db down"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			d := newFakeDirectory()
			d.err = tt.err
			s := newServer(d)

			_, err := s.GetUser(context.Background(), wrapperspb.String("x"))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestToStatus_HidesInternalDetails(t *testing.T) {
	d := newFakeDirectory()
	d.err = errors.New("password=hunter2")
	s := newServer(d)

	_, err := s.GetTimestamp(context.Background(), &emptypb.Empty{})
	assert.Equal(t, "internal error", status.Convert(err).Message())
}
