package service

import (
	"errors"
	"fmt"
	"time"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

var (
	// ErrTermsNotAccepted 尚未接受使用条款
	ErrTermsNotAccepted = errors.New("terms not accepted")
	// ErrBaseAddressNotSet 尚未设置基础地址
	ErrBaseAddressNotSet = errors.New("base address not set")
)

// identityCacheTTL 身份缓存的生存时间
const identityCacheTTL = 5 * time.Minute

// IdentityCache 身份快照缓存，Redis 可用时注入。
type IdentityCache interface {
	CacheIdentity(identity *domain.Identity, ttl time.Duration) error
	GetCachedIdentity(identityID int64) (*domain.Identity, error)
	DeleteCachedIdentity(identityID int64) error
}

// IdentityService 封装身份相关业务操作：条款接受、基础地址设置、catch-all 开关。
type IdentityService struct {
	identities storage.IdentityRepository
	validator  *domain.AddressValidator
	cache      IdentityCache // 可选
}

// NewIdentityService 创建身份业务服务。
func NewIdentityService(identities storage.IdentityRepository) *IdentityService {
	return &IdentityService{
		identities: identities,
		validator:  domain.NewAddressValidator(),
	}
}

// SetCache 注入身份缓存（可选，Redis 启用时调用）。
func (s *IdentityService) SetCache(cache IdentityCache) {
	s.cache = cache
}

// Get 根据 ID 获取身份。
func (s *IdentityService) Get(identityID int64) (*domain.Identity, error) {
	if s.cache != nil {
		if identity, err := s.cache.GetCachedIdentity(identityID); err == nil {
			return identity, nil
		}
	}

	identity, err := s.identities.GetIdentity(identityID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.CacheIdentity(identity, identityCacheTTL)
	}
	return identity, nil
}

// AcceptTerms 接受使用条款。身份不存在时在此创建（首次交互）。
func (s *IdentityService) AcceptTerms(identityID int64) error {
	identity, err := s.identities.GetIdentity(identityID)
	if errors.Is(err, storage.ErrIdentityNotFound) {
		identity = &domain.Identity{ID: identityID}
	} else if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}

	identity.AcceptedTerms = true
	if err := s.identities.UpsertIdentity(identity); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	s.invalidate(identityID)
	return nil
}

// SetBaseAddress 校验并设置基础地址，返回域名分类供适配层生成建议文案。
// 要求已接受条款；地址统一转为小写存储。
func (s *IdentityService) SetBaseAddress(identityID int64, address string) (domain.DomainClass, error) {
	identity, err := s.requireTerms(identityID)
	if err != nil {
		return "", err
	}

	local, domainName, err := s.validator.Parse(address)
	if err != nil {
		return "", err
	}

	identity.BaseAddress = local + "@" + domainName
	if err := s.identities.UpsertIdentity(identity); err != nil {
		return "", fmt.Errorf("failed to save identity: %w", err)
	}
	s.invalidate(identityID)

	return s.validator.ClassifyDomain(domainName), nil
}

// ToggleCatchAll 切换 catch-all 标志，返回切换后的状态。
// 需要已接受条款并已设置基础地址。
func (s *IdentityService) ToggleCatchAll(identityID int64) (bool, error) {
	identity, err := s.requireTerms(identityID)
	if err != nil {
		return false, err
	}
	if identity.BaseAddress == "" {
		return false, ErrBaseAddressNotSet
	}

	identity.CatchAll = !identity.CatchAll
	if err := s.identities.UpsertIdentity(identity); err != nil {
		return false, fmt.Errorf("failed to save identity: %w", err)
	}
	s.invalidate(identityID)

	return identity.CatchAll, nil
}

// requireTerms 加载身份并要求其已接受条款。
// 身份不存在与未接受条款表现一致。
func (s *IdentityService) requireTerms(identityID int64) (*domain.Identity, error) {
	identity, err := s.identities.GetIdentity(identityID)
	if errors.Is(err, storage.ErrIdentityNotFound) {
		return nil, ErrTermsNotAccepted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if !identity.AcceptedTerms {
		return nil, ErrTermsNotAccepted
	}
	return identity, nil
}

// invalidate 身份变更后让缓存失效。
func (s *IdentityService) invalidate(identityID int64) {
	if s.cache != nil {
		_ = s.cache.DeleteCachedIdentity(identityID)
	}
}
