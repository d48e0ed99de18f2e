package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/es"
	"murmur/internal/pkg/security"
	"murmur/internal/pkg/util"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeProfileRepo struct {
	profiles map[uint64]*es.ProfileES
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[uint64]*es.ProfileES{}}
}

func (f *fakeProfileRepo) IndexProfile(_ context.Context, profile *es.ProfileES) error {
	f.profiles[profile.ID] = profile
	return nil
}

func (f *fakeProfileRepo) DeleteProfile(_ context.Context, id uint64) error {
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileRepo) SearchByUsername(_ context.Context, keyword string, size int) ([]*es.ProfileES, error) {
	var res []*es.ProfileES
	for _, p := range f.profiles {
		if strings.Contains(strings.ToLower(p.Username), strings.ToLower(keyword)) {
			res = append(res, p)
			if len(res) == size {
				break
			}
		}
	}
	return res, nil
}

func setupUserTest(t *testing.T) (UserService, *fakeUserRepo, *fakeProfileRepo, *fakePublisher) {
	t.Helper()
	userRepo := newFakeUserRepo()
	profileRepo := newFakeProfileRepo()
	pub := &fakePublisher{}
	return NewUserService(userRepo, profileRepo, pub), userRepo, profileRepo, pub
}

func TestRegisterAndLogin(t *testing.T) {
	svc, userRepo, _, _ := setupUserTest(t)

	res, err := svc.Register(context.Background(), &dto.RegisterReq{Username: "alice", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.User == nil || res.User.Username != "alice" {
		t.Fatalf("unexpected register result %+v", res)
	}
	claims, err := security.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != res.User.ID {
		t.Errorf("token user %d does not match %d", claims.UserID, res.User.ID)
	}

	stored, _ := userRepo.GetUserByUsername(context.Background(), "alice")
	if stored.Password == "secret-pass" {
		t.Errorf("password must not be stored in plaintext")
	}

	login, err := svc.Login(context.Background(), &dto.LoginReq{Username: "alice", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("login returned wrong user")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _, _ := setupUserTest(t)

	if _, err := svc.Register(context.Background(), &dto.RegisterReq{Username: "alice", Password: "secret-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(context.Background(), &dto.RegisterReq{Username: "alice", Password: "other-pass"})
	if !errors.Is(err, ErrUserUsernameExist) {
		t.Fatalf("expected ErrUserUsernameExist, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := setupUserTest(t)

	if _, err := svc.Register(context.Background(), &dto.RegisterReq{Username: "alice", Password: "secret-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginReq{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrPasswordIncorrect) {
		t.Fatalf("expected ErrPasswordIncorrect, got %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginReq{Username: "nobody", Password: "wrong"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRegisterPublishesProfileEvent(t *testing.T) {
	svc, _, _, pub := setupUserTest(t)

	res, err := svc.Register(context.Background(), &dto.RegisterReq{Username: "alice", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	events := pub.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Table != consts.TableUsers || e.Event != consts.EventInsert || e.UserID != res.User.ID {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestSearchUsers(t *testing.T) {
	svc, _, profileRepo, _ := setupUserTest(t)

	profileRepo.profiles[1] = &es.ProfileES{ID: 1, Username: "alice"}
	profileRepo.profiles[2] = &es.ProfileES{ID: 2, Username: "Alicia", AvatarURL: util.PtrStr("http://cdn.local/avatars/2/1.jpg")}
	profileRepo.profiles[3] = &es.ProfileES{ID: 3, Username: "bob"}

	res, err := svc.SearchUsers(context.Background(), 9, "ali")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res))
	}

	// 搜索结果不应包含自己
	self, err := svc.SearchUsers(context.Background(), 1, "ali")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(self) != 1 || self[0].ID != 2 {
		t.Fatalf("caller must be excluded from results, got %+v", self)
	}
	if self[0].AvatarURL == nil || *self[0].AvatarURL != "http://cdn.local/avatars/2/1.jpg" {
		t.Errorf("avatar url should pass through, got %v", self[0].AvatarURL)
	}

	empty, err := svc.SearchUsers(context.Background(), 9, "")
	if err != nil {
		t.Fatalf("search empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty keyword should return no results")
	}
}
