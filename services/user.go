package services

import (
	"context"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
	log "github.com/sirupsen/logrus"
)

const userInfoCacheTTL = 5 * time.Minute

type userRecordStore interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUsers(ctx context.Context, page, limit int, search string) ([]model.User, int64, error)
	UpdateUserFields(ctx context.Context, userID string, fields map[string]interface{}) (*model.User, error)
}

type userCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type UserService struct {
	appContext.DefaultService

	sqlSvc userRecordStore
	cache  userCache
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func userInfoCacheKey(userID string) string {
	return "user_info:" + userID
}

// GetUserInfo serves profile lookups through a short-lived Redis cache. A
// cache failure falls back to the database; the cache is never authoritative.
func (svc *UserService) GetUserInfo(ctx context.Context, userID string) (*dto.UserInfo, error) {
	key := userInfoCacheKey(userID)

	if svc.cache != nil {
		var cached dto.UserInfo
		if err := svc.cache.GetJSON(ctx, key, &cached); err == nil && cached.ID != "" {
			return &cached, nil
		}
	}

	user, err := svc.sqlSvc.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load user")
	}

	info := toUserInfo(user)

	if svc.cache != nil {
		if err := svc.cache.Set(ctx, key, info, userInfoCacheTTL); err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("Failed to cache user info")
		}
	}

	return info, nil
}

// InvalidateUser drops the cached profile after a mutation that changes what
// GetUserInfo returns.
func (svc *UserService) InvalidateUser(ctx context.Context, userID string) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.Delete(ctx, userInfoCacheKey(userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached user info")
	}
}

// ==================== ADMIN METHODS ====================

func (svc *UserService) AdminGetUsers(ctx context.Context, page, limit int, search string) (*dto.AdminUserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := svc.sqlSvc.GetUsers(ctx, page, limit, search)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list users")
	}

	infos := make([]dto.AdminUserInfo, len(users))
	for i := range users {
		infos[i] = toAdminUserInfo(&users[i])
	}

	return &dto.AdminUserListResponse{
		Users: infos,
		Total: int(total),
		Page:  page,
		Limit: limit,
	}, nil
}

func (svc *UserService) AdminUpdateUser(ctx context.Context, userID string, req dto.AdminUpdateUserRequest) (*dto.AdminUserInfo, error) {
	fields := map[string]interface{}{}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if len(fields) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}

	user, err := svc.sqlSvc.UpdateUserFields(ctx, userID, fields)
	if err != nil {
		if isNotFound(err) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to update user")
	}

	svc.InvalidateUser(ctx, userID)

	log.WithFields(log.Fields{"user_id": userID}).Info("User updated by admin")

	info := toAdminUserInfo(user)
	return &info, nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		LastLoginAt:   user.LastLoginAt,
	}
}

func toAdminUserInfo(user *model.User) dto.AdminUserInfo {
	return dto.AdminUserInfo{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt,
		LastLoginAt:   user.LastLoginAt,
	}
}
