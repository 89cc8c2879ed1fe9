package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory implementation of all three repository
// interfaces. It enforces the same rules the SQLite schema does (unique
// email, one active record per pair, cascade on user delete) so service
// tests exercise real behaviour without a database.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	profiles    map[string]*model.Profile
	connections map[string]*model.ConnectionRequest
	seq         int

	// Failure injection.
	createUserErr error
	createConnErr error
	// skipActiveLookup makes FindActiveConnection miss even when a row
	// exists, reproducing two requests that both passed the lookup.
	skipActiveLookup bool
}

var (
	_ repository.UserRepository       = (*fakeStore)(nil)
	_ repository.ProfileRepository    = (*fakeStore)(nil)
	_ repository.ConnectionRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*model.User),
		profiles:    make(map[string]*model.Profile),
		connections: make(map[string]*model.ConnectionRequest),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq)
}

// tick returns strictly increasing timestamps so newest-first ordering is
// deterministic.
func (f *fakeStore) tick() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
}

// ----- users -----

func (f *fakeStore) CreateUserWithProfile(_ context.Context, user *model.User, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createUserErr != nil {
		return f.createUserErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}

	user.ID = f.nextID("user")
	user.CreatedAt = f.tick()
	user.UpdatedAt = user.CreatedAt
	profile.UserID = user.ID
	profile.CreatedAt = user.CreatedAt
	profile.UpdatedAt = user.CreatedAt
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.Interests == nil {
		profile.Interests = []string{}
	}

	u := *user
	p := *profile
	f.users[u.ID] = &u
	f.profiles[u.ID] = &p
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	delete(f.profiles, id)
	for cid, c := range f.connections {
		if c.Involves(id) {
			delete(f.connections, cid)
		}
	}
	return nil
}

// ----- profiles -----

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	copied := *p
	copied.Skills = slices.Clone(p.Skills)
	copied.Interests = slices.Clone(p.Interests)
	return &copied, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.profiles[profile.UserID]
	if !ok {
		return apperror.NotFound("profile", profile.UserID)
	}
	existing.Bio = profile.Bio
	existing.Skills = slices.Clone(profile.Skills)
	existing.Interests = slices.Clone(profile.Interests)
	existing.UpdatedAt = f.tick()
	return nil
}

func (f *fakeStore) SearchProfiles(_ context.Context, filter repository.ProfileFilter) ([]model.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []model.PublicProfile{}
	for id, u := range f.users {
		p := f.profiles[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if len(filter.Skills) > 0 && !containsAnyFold(p.Skills, filter.Skills) {
			continue
		}
		if len(filter.Interests) > 0 && !containsAnyFold(p.Interests, filter.Interests) {
			continue
		}
		out = append(out, model.PublicProfile{User: u.Identity(), Profile: *p})
	}
	slices.SortFunc(out, func(a, b model.PublicProfile) int {
		return strings.Compare(b.User.ID, a.User.ID)
	})
	return out, nil
}

func containsAnyFold(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// ----- connections -----

func (f *fakeStore) CreateConnection(_ context.Context, c *model.ConnectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createConnErr != nil {
		return f.createConnErr
	}
	for _, existing := range f.connections {
		if existing.MentorID == c.MentorID && existing.MenteeID == c.MenteeID && existing.Status.Active() {
			return apperror.Conflict("connection", c.MentorID+"/"+c.MenteeID)
		}
	}
	if _, ok := f.users[c.MentorID]; !ok {
		return apperror.NotFoundMessage("user not found")
	}
	if _, ok := f.users[c.MenteeID]; !ok {
		return apperror.NotFoundMessage("user not found")
	}

	c.ID = f.nextID("conn")
	c.CreatedAt = f.tick()
	c.UpdatedAt = c.CreatedAt
	if c.Status == "" {
		c.Status = model.StatusPending
	}
	copied := *c
	f.connections[c.ID] = &copied
	return nil
}

func (f *fakeStore) GetConnection(_ context.Context, id string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.connections[id]
	if !ok {
		return nil, apperror.NotFound("connection", id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) FindActiveConnection(_ context.Context, mentorID, menteeID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.skipActiveLookup {
		for _, c := range f.connections {
			if c.MentorID == mentorID && c.MenteeID == menteeID && c.Status.Active() {
				copied := *c
				return &copied, nil
			}
		}
	}
	return nil, apperror.NotFoundMessage("no active connection for pair")
}

func (f *fakeStore) FindPendingForResponder(_ context.Context, id, actorID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.connections[id]
	if !ok || !c.Involves(actorID) || c.InitiatorID == actorID || c.Status != model.StatusPending {
		return nil, apperror.NotFoundMessage("connection request not found or not authorized")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) FindPendingForInitiator(_ context.Context, id, actorID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.connections[id]
	if !ok || c.InitiatorID != actorID || c.Status != model.StatusPending {
		return nil, apperror.NotFoundMessage("connection request not found or not authorized")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) UpdateConnectionStatus(_ context.Context, id string, from, to model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.connections[id]
	if !ok || c.Status != from {
		return apperror.NotFoundMessage("connection request not found or not authorized")
	}
	c.Status = to
	c.UpdatedAt = f.tick()
	return nil
}

func (f *fakeStore) DeleteConnection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.connections[id]; !ok {
		return apperror.NotFound("connection", id)
	}
	delete(f.connections, id)
	return nil
}

func (f *fakeStore) ListConnectionsForUser(_ context.Context, userID string) ([]model.ConnectionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	views := []model.ConnectionView{}
	for _, c := range f.connections {
		if !c.Involves(userID) {
			continue
		}
		other := f.users[c.CounterpartOf(userID)]
		views = append(views, model.ConnectionView{
			ConnectionRequest: *c,
			Counterpart:       other.Identity(),
		})
	}
	slices.SortFunc(views, func(a, b model.ConnectionView) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return views, nil
}

// connectionCount returns how many records exist, whatever their status.
func (f *fakeStore) connectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.connections)
}

// addUser inserts a user directly, bypassing AuthService.
func (f *fakeStore) addUser(first string, role model.Role) *model.User {
	u := &model.User{
		FirstName:    first,
		LastName:     "Tester",
		Email:        strings.ToLower(first) + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	if err := f.CreateUserWithProfile(context.Background(), u, &model.Profile{}); err != nil {
		panic(err)
	}
	return u
}

// testLogger only lets errors through so test output stays readable.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
