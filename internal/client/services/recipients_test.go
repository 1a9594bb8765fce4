package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/client"
	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/client/repositories/users"
	"github.com/dmitrijs2005/gophdirectory/internal/client/workqueue"
	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*************
 * Fakes
 *************/

type fakeClient struct {
	client.Client

	mu    sync.Mutex
	calls []string

	getUserCalls atomic.Int32
	getUser      func(id string) (*models.User, error)
	searchName   func(q string) ([]*models.User, error)
	searchPay    func(addr string) ([]*models.User, error)
	timestamp    func() (*models.ServerTime, error)
	report       func(r *models.Report, ts *models.ServerTime) error
	clearErr     error

	reported *models.Report
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) GetUser(_ context.Context, id string) (*models.User, error) {
	f.record("GetUser")
	f.getUserCalls.Add(1)
	return f.getUser(id)
}

func (f *fakeClient) SearchByUsername(_ context.Context, q string) ([]*models.User, error) {
	f.record("SearchByUsername")
	return f.searchName(q)
}

func (f *fakeClient) SearchByPaymentAddress(_ context.Context, addr string) ([]*models.User, error) {
	f.record("SearchByPaymentAddress")
	return f.searchPay(addr)
}

func (f *fakeClient) GetTimestamp(context.Context) (*models.ServerTime, error) {
	f.record("GetTimestamp")
	return f.timestamp()
}

func (f *fakeClient) ReportUser(_ context.Context, r *models.Report, ts *models.ServerTime) error {
	f.record("ReportUser")
	c := *r
	f.reported = &c
	return f.report(r, ts)
}

func (f *fakeClient) ClearCache() error {
	f.record("ClearCache")
	return f.clearErr
}

type staticConn bool

func (c staticConn) Online() bool { return bool(c) }

type failingUsers struct {
	users.Repository
	saveErr  error
	clearErr error
}

func (f failingUsers) Save(context.Context, *models.User) error { return f.saveErr }
func (f failingUsers) Clear(context.Context) error              { return f.clearErr }

/*************
 * Helpers
 *************/

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func setupRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func newService(fc *fakeClient, repos *client.Repositories, online bool) RecipientService {
	return NewRecipientService(fc, repos, staticConn(online),
		WithClock(func() time.Time { return now }),
		WithRefreshInterval(5*time.Minute))
}

func seed(t *testing.T, repos *client.Repositories, u *models.User) {
	t.Helper()
	require.NoError(t, repos.Users.Save(context.Background(), u))
}

func cachedUser(t *testing.T, repos *client.Repositories, id string) *models.User {
	t.Helper()
	u, err := repos.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func remoteUser(id, name string) *models.User {
	return &models.User{ToshiID: id, Username: name, Name: "Remote " + name, PaymentAddress: "pay-" + id}
}

func unexpected[T any](t *testing.T, what string) func(string) (T, error) {
	return func(string) (T, error) {
		t.Errorf("unexpected %s call", what)
		var zero T
		return zero, errors.New("unexpected")
	}
}

/*************
 * GetUserByID
 *************/

func TestGetUserByID_OfflineReturnsCacheWithoutNetwork(t *testing.T) {
	for name, age := range map[string]time.Duration{"fresh": time.Minute, "stale": time.Hour} {
		t.Run(name, func(t *testing.T) {
			repos := setupRepos(t)
			seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice", CachedAt: now.Add(-age)})
			fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

			u, err := newService(fc, repos, false).GetUserByID(context.Background(), "0x1")
			require.NoError(t, err)
			assert.Equal(t, "alice", u.Username)
			assert.Empty(t, fc.callLog())
		})
	}
}

func TestGetUserByID_OfflineMiss(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

	_, err := newService(fc, repos, false).GetUserByID(context.Background(), "0x1")
	require.ErrorIs(t, err, client.ErrLocalDataNotAvailable)
	assert.Empty(t, fc.callLog())
}

func TestGetUserByID_OnlineFreshCache(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice", CachedAt: now.Add(-time.Minute)})
	fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

	u, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Zero(t, fc.getUserCalls.Load())
}

func TestGetUserByID_MissFetchesOnceAndCaches(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{getUser: func(id string) (*models.User, error) { return remoteUser(id, "alice"), nil }}

	u, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, "Remote alice", u.Name)
	assert.Equal(t, now, u.CachedAt)
	assert.Equal(t, int32(1), fc.getUserCalls.Load())

	stored := cachedUser(t, repos, "0x1")
	require.NotNil(t, stored)
	assert.Equal(t, u, stored)
}

func TestGetUserByID_StaleIsOverwrittenWholesale(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{
		ToshiID: "0x1", Username: "alice", About: "old bio", Location: "Riga",
		CachedAt: now.Add(-10 * time.Minute),
	})
	fc := &fakeClient{getUser: func(id string) (*models.User, error) { return remoteUser(id, "alice2"), nil }}

	u, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)

	stored := cachedUser(t, repos, "0x1")
	assert.Equal(t, "alice2", stored.Username)
	assert.Empty(t, stored.About)
	assert.Empty(t, stored.Location)
	assert.Equal(t, now, stored.CachedAt)
}

func TestGetUserByID_NetworkErrorWithStaleCache(t *testing.T) {
	repos := setupRepos(t)
	stale := &models.User{ToshiID: "0x1", Username: "alice", CachedAt: now.Add(-time.Hour)}
	seed(t, repos, stale)
	fc := &fakeClient{getUser: func(string) (*models.User, error) { return nil, client.ErrUnavailable }}

	_, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, stale, cachedUser(t, repos, "0x1"))
}

func TestGetUserByID_NotFoundRemotely(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{getUser: func(string) (*models.User, error) { return nil, common.ErrorNotFound }}

	_, err := newService(fc, repos, true).GetUserByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Nil(t, cachedUser(t, repos, "ghost"))
}

func TestGetUserByID_StoreErrorPropagates(t *testing.T) {
	repos := setupRepos(t)
	saveErr := errors.New("disk full")
	repos.Users = failingUsers{Repository: repos.Users, saveErr: saveErr}
	fc := &fakeClient{getUser: func(id string) (*models.User, error) { return remoteUser(id, "alice"), nil }}

	_, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.ErrorIs(t, err, saveErr)
}

func TestGetUserByID_ReadErrorPropagates(t *testing.T) {
	repos := setupRepos(t)
	require.NoError(t, repos.Close())
	fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

	_, err := newService(fc, repos, true).GetUserByID(context.Background(), "0x1")
	require.Error(t, err)
	assert.Empty(t, fc.callLog())
}

func TestGetUserByUsername_Delegates(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice", CachedAt: now})
	fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

	u, err := newService(fc, repos, true).GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "0x1", u.ToshiID)

	var asked string
	fc.getUser = func(id string) (*models.User, error) {
		asked = id
		return remoteUser("0x2", id), nil
	}
	u, err = newService(fc, repos, true).GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", asked)
	assert.Equal(t, "0x2", u.ToshiID)
}

func TestGetUserByUsername_IgnoresCase(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice", CachedAt: now.Add(-time.Minute)})
	fc := &fakeClient{getUser: unexpected[*models.User](t, "GetUser")}

	online := newService(fc, repos, true)
	for _, name := range []string{"Alice", "ALICE", "alice"} {
		u, err := online.GetUserByUsername(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, "0x1", u.ToshiID)
	}
	assert.Zero(t, fc.getUserCalls.Load())

	u, err := newService(fc, repos, false).GetUserByUsername(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "0x1", u.ToshiID)
}

func TestGetUserByID_ConcurrentLookupsLastWriteWins(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{getUser: func(id string) (*models.User, error) { return remoteUser(id, "alice"), nil }}
	svc := newService(fc, repos, true)
	q := workqueue.New(4)

	futures := make([]*workqueue.Future[*models.User], 0, 8)
	for i := 0; i < 8; i++ {
		futures = append(futures, workqueue.Submit(q, context.Background(), func(ctx context.Context) (*models.User, error) {
			return svc.GetUserByID(ctx, "0x1")
		}))
	}
	for _, f := range futures {
		u, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0x1", u.ToshiID)
	}
	assert.GreaterOrEqual(t, fc.getUserCalls.Load(), int32(1))
	assert.Equal(t, "alice", cachedUser(t, repos, "0x1").Username)
}

/*************
 * GetUserByPaymentAddress
 *************/

func TestGetUserByPaymentAddress_EmptyResultLeavesCache(t *testing.T) {
	repos := setupRepos(t)
	stale := &models.User{ToshiID: "0x1", Username: "alice", PaymentAddress: "0xpay", CachedAt: now.Add(-time.Hour)}
	seed(t, repos, stale)
	fc := &fakeClient{searchPay: func(string) ([]*models.User, error) { return []*models.User{}, nil }}

	u, err := newService(fc, repos, true).GetUserByPaymentAddress(context.Background(), "0xpay")
	require.NoError(t, err)
	assert.Equal(t, stale, u)
	assert.Equal(t, stale, cachedUser(t, repos, "0x1"))
}

func TestGetUserByPaymentAddress_EmptyResultNoCache(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{searchPay: func(string) ([]*models.User, error) { return nil, nil }}

	_, err := newService(fc, repos, true).GetUserByPaymentAddress(context.Background(), "0xnone")
	require.ErrorIs(t, err, common.ErrorNotFound)

	all, err := repos.Users.QueryByUsername(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetUserByPaymentAddress_OnlyFirstResultCached(t *testing.T) {
	repos := setupRepos(t)
	first := &models.User{ToshiID: "0x1", Username: "first", PaymentAddress: "0xpay"}
	second := &models.User{ToshiID: "0x2", Username: "second", PaymentAddress: "0xpay"}
	fc := &fakeClient{searchPay: func(string) ([]*models.User, error) { return []*models.User{first, second}, nil }}

	u, err := newService(fc, repos, true).GetUserByPaymentAddress(context.Background(), "0xpay")
	require.NoError(t, err)
	assert.Equal(t, "0x1", u.ToshiID)
	assert.Equal(t, now, u.CachedAt)

	assert.NotNil(t, cachedUser(t, repos, "0x1"))
	assert.Nil(t, cachedUser(t, repos, "0x2"))
}

func TestGetUserByPaymentAddress_Offline(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{searchPay: unexpected[[]*models.User](t, "SearchByPaymentAddress")}
	svc := newService(fc, repos, false)

	_, err := svc.GetUserByPaymentAddress(context.Background(), "0xpay")
	require.ErrorIs(t, err, client.ErrLocalDataNotAvailable)

	seed(t, repos, &models.User{ToshiID: "0x1", Username: "a", PaymentAddress: "0xpay", CachedAt: now.Add(-time.Hour)})
	u, err := svc.GetUserByPaymentAddress(context.Background(), "0xpay")
	require.NoError(t, err)
	assert.Equal(t, "0x1", u.ToshiID)
	assert.Empty(t, fc.callLog())
}

func TestGetUserByPaymentAddress_AddressMovedToAnotherUser(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0xA", Username: "old", PaymentAddress: "0xpay", CachedAt: now.Add(-time.Hour)})
	fc := &fakeClient{searchPay: func(string) ([]*models.User, error) {
		return []*models.User{{ToshiID: "0xB", Username: "new", PaymentAddress: "0xpay"}}, nil
	}}

	online := newService(fc, repos, true)
	for i := 0; i < 3; i++ {
		u, err := online.GetUserByPaymentAddress(context.Background(), "0xpay")
		require.NoError(t, err)
		assert.Equal(t, "0xB", u.ToshiID)
	}
	assert.Equal(t, []string{"SearchByPaymentAddress"}, fc.callLog())

	u, err := newService(fc, repos, false).GetUserByPaymentAddress(context.Background(), "0xpay")
	require.NoError(t, err)
	assert.Equal(t, "0xB", u.ToshiID)
	assert.Empty(t, cachedUser(t, repos, "0xA").PaymentAddress)
}

/*************
 * Groups, search, contacts, blocks
 *************/

func TestGroups(t *testing.T) {
	repos := setupRepos(t)
	svc := newService(&fakeClient{}, repos, true)
	ctx := context.Background()

	_, err := svc.GetGroup(ctx, "g1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.ErrorIs(t, svc.SaveGroup(ctx, &models.Group{}), common.ErrorValidation)
	require.NoError(t, svc.SaveGroup(ctx, &models.Group{ID: "g1", Title: "Team", Members: []string{"0x1"}}))

	g, err := svc.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Team", g.Title)
	assert.Equal(t, now, g.UpdatedAt)
	assert.True(t, g.HasMember("0x1"))
}

func TestSearchOfflineAndOnline(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice"})
	seed(t, repos, &models.User{ToshiID: "0x2", Username: "malice"})
	seed(t, repos, &models.User{ToshiID: "0x3", Username: "bob"})
	fc := &fakeClient{searchName: func(q string) ([]*models.User, error) {
		return []*models.User{remoteUser("0x9", q+"-remote")}, nil
	}}
	svc := newService(fc, repos, true)
	ctx := context.Background()

	local, err := svc.SearchOffline(ctx, "lic")
	require.NoError(t, err)
	assert.Len(t, local, 2)

	remote, err := svc.SearchOnline(ctx, "zed")
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "zed-remote", remote[0].Username)
	assert.Nil(t, cachedUser(t, repos, "0x9"))
}

func TestSearchOnline_Error(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{searchName: func(string) ([]*models.User, error) { return nil, client.ErrUnavailable }}

	_, err := newService(fc, repos, true).SearchOnline(context.Background(), "a")
	require.ErrorIs(t, err, client.ErrUnavailable)
}

func TestContacts(t *testing.T) {
	repos := setupRepos(t)
	svc := newService(&fakeClient{}, repos, true)
	ctx := context.Background()
	alice := &models.User{ToshiID: "0x1", Username: "alice"}

	ok, err := svc.IsContact(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.AddContact(ctx, alice))
	ok, err = svc.IsContact(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := svc.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].User.Username)

	require.NoError(t, svc.RemoveContact(ctx, alice))
	ok, err = svc.IsContact(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, svc.AddContact(ctx, nil), common.ErrorValidation)
}

func TestBlocks(t *testing.T) {
	repos := setupRepos(t)
	svc := newService(&fakeClient{}, repos, true)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, "0xbad"))
	ok, err := svc.IsBlocked(ctx, "0xbad")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := svc.ListBlocked(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Unblock(ctx, "0xbad"))
	ok, err = svc.IsBlocked(ctx, "0xbad")
	require.NoError(t, err)
	assert.False(t, ok)
}

/*************
 * Report
 *************/

func TestReport_FetchesTimestampOnceFirst(t *testing.T) {
	repos := setupRepos(t)
	serverTime := &models.ServerTime{Timestamp: time.Unix(1760000000, 0).UTC(), Token: "tok"}
	var gotTS *models.ServerTime
	fc := &fakeClient{
		timestamp: func() (*models.ServerTime, error) { return serverTime, nil },
		report: func(_ *models.Report, ts *models.ServerTime) error {
			gotTS = ts
			return nil
		},
	}

	r := &models.Report{UserAddress: "0xbad", Details: "spam", Timestamp: now}
	require.NoError(t, newService(fc, repos, true).Report(context.Background(), r))

	assert.Equal(t, []string{"GetTimestamp", "ReportUser"}, fc.callLog())
	assert.Equal(t, serverTime.Timestamp, fc.reported.Timestamp)
	assert.Equal(t, serverTime, gotTS)
}

func TestReport_TimestampFailureSkipsSubmission(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{timestamp: func() (*models.ServerTime, error) { return nil, client.ErrUnavailable }}

	err := newService(fc, repos, true).Report(context.Background(), &models.Report{UserAddress: "0xbad"})
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, []string{"GetTimestamp"}, fc.callLog())
}

func TestReport_SubmissionError(t *testing.T) {
	repos := setupRepos(t)
	fc := &fakeClient{
		timestamp: func() (*models.ServerTime, error) { return &models.ServerTime{Timestamp: now}, nil },
		report:    func(*models.Report, *models.ServerTime) error { return client.ErrUnauthorized },
	}

	err := newService(fc, repos, true).Report(context.Background(), &models.Report{UserAddress: "0xbad"})
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestReport_RequiresAddress(t *testing.T) {
	fc := &fakeClient{}
	err := newService(fc, setupRepos(t), true).Report(context.Background(), &models.Report{})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, fc.callLog())
}

/*************
 * ClearAll
 *************/

func TestClearAll_SwallowsRemoteCacheError(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, &models.User{ToshiID: "0x1", Username: "alice"})
	fc := &fakeClient{clearErr: client.ErrClientClosed}

	require.NoError(t, newService(fc, repos, true).ClearAll(context.Background()))
	assert.Nil(t, cachedUser(t, repos, "0x1"))
	assert.Equal(t, []string{"ClearCache"}, fc.callLog())
}

func TestClearAll_LocalErrorPropagates(t *testing.T) {
	repos := setupRepos(t)
	clearErr := errors.New("locked")
	repos.Users = failingUsers{Repository: repos.Users, clearErr: clearErr}
	fc := &fakeClient{}

	err := newService(fc, repos, true).ClearAll(context.Background())
	require.ErrorIs(t, err, clearErr)
	assert.Empty(t, fc.callLog())
}
