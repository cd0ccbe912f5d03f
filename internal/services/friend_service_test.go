package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/internal/repositories"
	"github.com/mroshb/friendgraph/internal/services"
	"github.com/mroshb/friendgraph/pkg/errors"
)

type friendFixture struct {
	service *services.FriendService
	store   *repositories.MemoryFriendStore
	users   *repositories.MemoryUserStore
	ids     map[string]uint
}

func newFriendFixture(t *testing.T, names ...string) *friendFixture {
	t.Helper()

	users := repositories.NewMemoryUserStore()
	store := repositories.NewMemoryFriendStore()
	ids := make(map[string]uint, len(names))
	for _, name := range names {
		user := &models.User{Username: name, PasswordHash: "hash"}
		if err := users.CreateUser(context.Background(), user); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", name, err)
		}
		ids[name] = user.ID
	}

	return &friendFixture{
		service: services.NewFriendService(store, users),
		store:   store,
		users:   users,
		ids:     ids,
	}
}

func friendIDs(friends []models.FriendSummary) []uint {
	ids := make([]uint, 0, len(friends))
	for _, f := range friends {
		ids = append(ids, f.ID)
	}
	return ids
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestFriendService_AliceBobScenario(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob")
	ctx := context.Background()

	r1, err := f.service.CreateFriendRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateFriendRequest() error = %v", err)
	}
	if r1.Status != models.FriendRequestStatusPending || r1.ID == "" {
		t.Fatalf("CreateFriendRequest() = %+v, want pending record with id", r1)
	}

	pending, err := f.service.GetPendingFriendRequests(ctx, 2)
	if err != nil {
		t.Fatalf("GetPendingFriendRequests() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != r1.ID || pending[0].RequesterID != 1 {
		t.Fatalf("GetPendingFriendRequests(2) = %+v, want [{id:%s requester:1}]", pending, r1.ID)
	}
	if pending[0].RequesterUsername != "alice" {
		t.Errorf("RequesterUsername = %q, want %q", pending[0].RequesterUsername, "alice")
	}

	accepted, err := f.service.RespondToFriendRequest(ctx, 2, r1.ID, models.FriendActionAccept)
	if err != nil {
		t.Fatalf("RespondToFriendRequest() error = %v", err)
	}
	if accepted.ID != r1.ID || accepted.Status != models.FriendRequestStatusAccepted {
		t.Errorf("RespondToFriendRequest() = %+v, want accepted %s", accepted, r1.ID)
	}

	aliceFriends, _ := f.service.GetFriends(ctx, 1)
	if len(aliceFriends) != 1 || aliceFriends[0].ID != 2 || aliceFriends[0].Username != "bob" {
		t.Errorf("GetFriends(1) = %+v, want [{2 bob}]", aliceFriends)
	}
	bobFriends, _ := f.service.GetFriends(ctx, 2)
	if len(bobFriends) != 1 || bobFriends[0].ID != 1 {
		t.Errorf("GetFriends(2) = %+v, want [{1 alice}]", bobFriends)
	}

	stillPending, _ := f.service.GetPendingFriendRequests(ctx, 2)
	if len(stillPending) != 0 {
		t.Errorf("GetPendingFriendRequests(2) after accept = %+v, want empty", stillPending)
	}
}

func TestFriendService_CreateFriendRequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *friendFixture)
		caller   uint
		target   uint
		wantCode string
		wantMsg  string
	}{
		{
			name:     "Self request",
			caller:   1,
			target:   1,
			wantCode: errors.ErrCodeInvalidTarget,
			wantMsg:  "cannot send a friend request to yourself",
		},
		{
			name:     "Zero target",
			caller:   1,
			target:   0,
			wantCode: errors.ErrCodeInvalidTarget,
			wantMsg:  "target user not found",
		},
		{
			name:     "Unknown target",
			caller:   1,
			target:   99,
			wantCode: errors.ErrCodeInvalidTarget,
			wantMsg:  "target user not found",
		},
		{
			name: "Pending same direction",
			setup: func(f *friendFixture) {
				f.service.CreateFriendRequest(context.Background(), 1, 2)
			},
			caller:   1,
			target:   2,
			wantCode: errors.ErrCodeDuplicateRelationship,
		},
		{
			name: "Pending reverse direction",
			setup: func(f *friendFixture) {
				f.service.CreateFriendRequest(context.Background(), 1, 2)
			},
			caller:   2,
			target:   1,
			wantCode: errors.ErrCodeDuplicateRelationship,
		},
		{
			name: "Already friends",
			setup: func(f *friendFixture) {
				ctx := context.Background()
				req, _ := f.service.CreateFriendRequest(ctx, 1, 2)
				f.service.RespondToFriendRequest(ctx, 2, req.ID, models.FriendActionAccept)
			},
			caller:   2,
			target:   1,
			wantCode: errors.ErrCodeDuplicateRelationship,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFriendFixture(t, "alice", "bob")
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.service.CreateFriendRequest(context.Background(), tt.caller, tt.target)
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Errorf("CreateFriendRequest() code = %q, want %q (err = %v)", got, tt.wantCode, err)
			}
			if tt.wantMsg != "" {
				if got := errors.MessageOf(err); got != tt.wantMsg {
					t.Errorf("CreateFriendRequest() message = %q, want %q", got, tt.wantMsg)
				}
			}
		})
	}
}

func TestFriendService_DuplicateLeavesFirstPending(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob")
	ctx := context.Background()

	first, _ := f.service.CreateFriendRequest(ctx, 1, 2)
	f.service.CreateFriendRequest(ctx, 2, 1)

	stored, err := f.store.FindByID(ctx, first.ID)
	if err != nil || stored == nil {
		t.Fatalf("FindByID() = %v, %v", stored, err)
	}
	if stored.Status != models.FriendRequestStatusPending {
		t.Errorf("Status = %q, want %q", stored.Status, models.FriendRequestStatusPending)
	}
}

func TestFriendService_RejectFlow(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob")
	ctx := context.Background()

	req, _ := f.service.CreateFriendRequest(ctx, 1, 2)
	rejected, err := f.service.RespondToFriendRequest(ctx, 2, req.ID, models.FriendActionReject)
	if err != nil {
		t.Fatalf("RespondToFriendRequest(reject) error = %v", err)
	}
	if rejected.Status != models.FriendRequestStatusRejected {
		t.Errorf("Status = %q, want %q", rejected.Status, models.FriendRequestStatusRejected)
	}

	for _, id := range []uint{1, 2} {
		friends, _ := f.service.GetFriends(ctx, id)
		if len(friends) != 0 {
			t.Errorf("GetFriends(%d) = %+v, want empty", id, friends)
		}
	}

	_, err = f.service.RespondToFriendRequest(ctx, 2, req.ID, models.FriendActionAccept)
	if !errors.HasCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("second response error = %v, want %s", err, errors.ErrCodeInvalidState)
	}

	// A rejected record does not block a new request in either direction.
	again, err := f.service.CreateFriendRequest(ctx, 2, 1)
	if err != nil {
		t.Fatalf("CreateFriendRequest() after rejection error = %v", err)
	}
	if again.ID == req.ID {
		t.Error("re-request reused the rejected record id")
	}
}

func TestFriendService_RespondErrors(t *testing.T) {
	tests := []struct {
		name      string
		caller    uint
		requestID func(created string) string
		action    string
		wantCode  string
	}{
		{
			name:      "Requester responds to own request",
			caller:    1,
			requestID: func(id string) string { return id },
			action:    models.FriendActionAccept,
			wantCode:  errors.ErrCodeForbidden,
		},
		{
			name:      "Uninvolved user",
			caller:    3,
			requestID: func(id string) string { return id },
			action:    models.FriendActionAccept,
			wantCode:  errors.ErrCodeForbidden,
		},
		{
			name:      "Unknown id",
			caller:    2,
			requestID: func(string) string { return "does-not-exist" },
			action:    models.FriendActionAccept,
			wantCode:  errors.ErrCodeNotFound,
		},
		{
			name:      "Unknown action",
			caller:    2,
			requestID: func(id string) string { return id },
			action:    "block",
			wantCode:  errors.ErrCodeInvalidAction,
		},
		{
			name:      "Action is case sensitive",
			caller:    2,
			requestID: func(id string) string { return id },
			action:    "ACCEPT",
			wantCode:  errors.ErrCodeInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFriendFixture(t, "alice", "bob", "carol")
			ctx := context.Background()
			req, err := f.service.CreateFriendRequest(ctx, 1, 2)
			if err != nil {
				t.Fatalf("CreateFriendRequest() error = %v", err)
			}

			_, err = f.service.RespondToFriendRequest(ctx, tt.caller, tt.requestID(req.ID), tt.action)
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Errorf("RespondToFriendRequest() code = %q, want %q (err = %v)", got, tt.wantCode, err)
			}

			stored, _ := f.store.FindByID(ctx, req.ID)
			if stored.Status != models.FriendRequestStatusPending {
				t.Errorf("Status after failed response = %q, want pending", stored.Status)
			}
		})
	}
}

func TestFriendService_ConcurrentAccept(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob")
	ctx := context.Background()

	req, err := f.service.CreateFriendRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CreateFriendRequest() error = %v", err)
	}

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.RespondToFriendRequest(ctx, 2, req.ID, models.FriendActionAccept)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.HasCode(err, errors.ErrCodeInvalidState), errors.HasCode(err, errors.ErrCodeNotFound):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("successes = %d, conflicts = %d; want 1 and %d", successes, conflicts, workers-1)
	}

	stored, _ := f.store.FindByID(ctx, req.ID)
	if stored.Status != models.FriendRequestStatusAccepted {
		t.Errorf("final Status = %q, want %q", stored.Status, models.FriendRequestStatusAccepted)
	}
}

func TestFriendService_ConcurrentCreateSamePair(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob")
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller, target := uint(1), uint(2)
			if i%2 == 0 {
				caller, target = target, caller
			}
			_, err := f.service.CreateFriendRequest(ctx, caller, target)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.HasCode(err, errors.ErrCodeDuplicateRelationship) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful creates = %d, want 1", successes)
	}
}

func TestFriendService_PendingIsReceivedOnly(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob", "carol")
	ctx := context.Background()

	f.service.CreateFriendRequest(ctx, 1, 2)
	f.service.CreateFriendRequest(ctx, 3, 2)

	sent, _ := f.service.GetPendingFriendRequests(ctx, 1)
	if len(sent) != 0 {
		t.Errorf("GetPendingFriendRequests(1) = %+v, want none", sent)
	}

	received, _ := f.service.GetPendingFriendRequests(ctx, 2)
	if len(received) != 2 {
		t.Fatalf("GetPendingFriendRequests(2) = %+v, want 2", received)
	}
	if received[0].RequesterID != 1 || received[1].RequesterID != 3 {
		t.Errorf("requesters = [%d %d], want [1 3]", received[0].RequesterID, received[1].RequesterID)
	}
}

func TestFriendService_GetFriendsAcrossDirections(t *testing.T) {
	f := newFriendFixture(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	ab, _ := f.service.CreateFriendRequest(ctx, 1, 2)
	ca, _ := f.service.CreateFriendRequest(ctx, 3, 1)
	f.service.CreateFriendRequest(ctx, 1, 4)
	f.service.RespondToFriendRequest(ctx, 2, ab.ID, models.FriendActionAccept)
	f.service.RespondToFriendRequest(ctx, 1, ca.ID, models.FriendActionAccept)

	friends, err := f.service.GetFriends(ctx, 1)
	if err != nil {
		t.Fatalf("GetFriends() error = %v", err)
	}
	ids := friendIDs(friends)
	if len(ids) != 2 || !containsID(ids, 2) || !containsID(ids, 3) {
		t.Errorf("GetFriends(1) ids = %v, want [2 3]", ids)
	}
	if containsID(ids, 1) || containsID(ids, 4) {
		t.Errorf("GetFriends(1) ids = %v, must exclude caller and pending target", ids)
	}

	none, err := f.service.GetFriends(ctx, 4)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("GetFriends(4) = %v, %v; want empty non-nil slice", none, err)
	}
}

type failingStore struct {
	services.FriendStore
	err error
}

func (s failingStore) FindActiveBetween(context.Context, uint, uint) (*models.FriendRequest, error) {
	return nil, s.err
}

func (s failingStore) ListAccepted(context.Context, uint) ([]models.FriendRequest, error) {
	return nil, s.err
}

func (s failingStore) FindByID(context.Context, string) (*models.FriendRequest, error) {
	return nil, s.err
}

func TestFriendService_PropagatesStoreErrors(t *testing.T) {
	users := repositories.NewMemoryUserStore()
	ctx := context.Background()
	users.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "hash"})
	users.CreateUser(ctx, &models.User{Username: "bob", PasswordHash: "hash"})

	storeErr := errors.Wrap(stderrors.New("connection refused"), errors.ErrCodeStoreUnavailable, "store unavailable")
	service := services.NewFriendService(failingStore{err: storeErr}, users)

	if _, err := service.CreateFriendRequest(ctx, 1, 2); !errors.HasCode(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("CreateFriendRequest() error = %v, want %s", err, errors.ErrCodeStoreUnavailable)
	}
	if _, err := service.GetFriends(ctx, 1); !errors.HasCode(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("GetFriends() error = %v, want %s", err, errors.ErrCodeStoreUnavailable)
	}
	if _, err := service.RespondToFriendRequest(ctx, 2, "r1", models.FriendActionAccept); !errors.HasCode(err, errors.ErrCodeStoreUnavailable) {
		t.Errorf("RespondToFriendRequest() error = %v, want %s", err, errors.ErrCodeStoreUnavailable)
	}
}
