package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/es"
	"murmur/internal/pkg/redis"
	"murmur/internal/pkg/security"
	"murmur/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

const userInfoCacheTTL = 30 * time.Minute

// UserService 用户域服务接口定义
type UserService interface {
	Register(ctx context.Context, req *dto.RegisterReq) (*dto.LoginRes, error)
	Login(ctx context.Context, req *dto.LoginReq) (*dto.LoginRes, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, userID uint64) (*dto.UserDTO, error)
	SearchUsers(ctx context.Context, userID uint64, keyword string) ([]*dto.UserDTO, error)
	UpdateAvatar(ctx context.Context, userID uint64, avatarURL string) error
}

type userServiceImpl struct {
	userRepo    repository.UserRepo
	profileRepo es.ProfileRepo
	publisher   EventPublisher
}

func NewUserService(userRepo repository.UserRepo, profileRepo es.ProfileRepo, publisher EventPublisher) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Register 注册并直接返回登录态
func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterReq) (*dto.LoginRes, error) {
	existing, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserUsernameExist
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Password: hashed,
	}
	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		if isDuplicateError(err) {
			return nil, ErrUserUsernameExist
		}
		return nil, err
	}

	s.publishProfileChange(ctx, user.ID, consts.EventInsert)

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginRes{Token: token, User: toUserDTO(user)}, nil
}

// Login 用户名密码登录
func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginReq) (*dto.LoginRes, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err = security.CheckPasswordHash(req.Password, user.Password); err != nil {
		return nil, ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginRes{Token: token, User: toUserDTO(user)}, nil
}

// Logout 把 Token 签名写进 Redis 黑名单，保留到 Token 自然过期
func (s *userServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return UnauthorizedError
	}
	return redis.SetWithExpiration(ctx, signature, "revoked", security.JWTExpirationTime)
}

// GetUser 查询用户公开资料，Redis 缓存 30 分钟
func (s *userServiceImpl) GetUser(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	cacheKey := fmt.Sprintf("%s%d", consts.UserInfoKey, userID)

	cached, err := redis.GetValue(ctx, cacheKey)
	if err != nil {
		log.WarnContext(ctx, "Failed to read user cache", "userID", userID, "err", err)
	}
	if cached != "" {
		var u dto.UserDTO
		if err = json.Unmarshal([]byte(cached), &u); err == nil {
			return &u, nil
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	u := toUserDTO(user)
	if raw, err := json.Marshal(u); err == nil {
		if err = redis.SetWithExpiration(ctx, cacheKey, raw, userInfoCacheTTL); err != nil {
			log.WarnContext(ctx, "Failed to write user cache", "userID", userID, "err", err)
		}
	}
	return u, nil
}

// SearchUsers 按用户名子串搜索，走 ES 的 profile 索引，结果不含自己
func (s *userServiceImpl) SearchUsers(ctx context.Context, userID uint64, keyword string) ([]*dto.UserDTO, error) {
	if keyword == "" {
		return []*dto.UserDTO{}, nil
	}

	profiles, err := s.profileRepo.SearchByUsername(ctx, keyword, 20)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UserDTO, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == userID {
			continue
		}
		res = append(res, &dto.UserDTO{
			ID:        p.ID,
			Username:  p.Username,
			AvatarURL: p.AvatarURL,
		})
	}
	return res, nil
}

// UpdateAvatar 更新头像地址并失效缓存
func (s *userServiceImpl) UpdateAvatar(ctx context.Context, userID uint64, avatarURL string) error {
	if userID == 0 {
		return UnauthorizedError
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return err
	}

	cacheKey := fmt.Sprintf("%s%d", consts.UserInfoKey, userID)
	if err := redis.DeleteKey(ctx, cacheKey); err != nil {
		log.WarnContext(ctx, "Failed to invalidate user cache", "userID", userID, "err", err)
	}

	s.publishProfileChange(ctx, userID, consts.EventUpdate)
	return nil
}

// publishProfileChange 用户资料变更事件，由消费端同步进 ES
func (s *userServiceImpl) publishProfileChange(ctx context.Context, userID uint64, event string) {
	e := &dto.ChangeEventDTO{
		Table:  consts.TableUsers,
		Event:  event,
		UserID: userID,
	}
	if err := s.publisher.PublishChange(ctx, e); err != nil {
		log.ErrorContext(ctx, "Failed to publish profile change", "userID", userID, "err", err)
	}
}
