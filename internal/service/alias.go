package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aliasbot/backend/internal/config"
	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/generator"
	"aliasbot/backend/internal/storage"
)

// 生成策略标识
const (
	StrategyPlus   = "plus"
	StrategyDot    = "dot"
	StrategyCustom = "custom"
)

// defaultListLimit 列表查询的默认条数
const defaultListLimit = 50

var (
	// ErrUnknownStrategy 未知的生成策略
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrCountOutOfRange 生成数量超出策略上限
	ErrCountOutOfRange = errors.New("count out of range")
	// ErrCatchAllRequired custom 策略要求开启 catch-all
	ErrCatchAllRequired = errors.New("catch-all required for custom strategy")
)

// GenerateInput 别名生成请求参数。
// BaseAddressOverride 非空时本次生成使用它替代身份已存的基础地址，不落库。
type GenerateInput struct {
	IdentityID          int64
	Strategy            string
	Count               int
	Label               *string
	BaseAddressOverride string
}

// AliasService 别名业务服务：校验、限额、生成、持久化一条龙。
type AliasService struct {
	identities storage.IdentityRepository
	aliases    storage.AliasRepository
	validator  *domain.AddressValidator
	generator  *generator.Generator
	quota      *QuotaTracker
	cfg        config.AliasConfig
	logger     *zap.Logger
}

// NewAliasService 创建别名业务服务。
func NewAliasService(
	identities storage.IdentityRepository,
	aliases storage.AliasRepository,
	gen *generator.Generator,
	quota *QuotaTracker,
	cfg config.AliasConfig,
	logger *zap.Logger,
) *AliasService {
	return &AliasService{
		identities: identities,
		aliases:    aliases,
		validator:  domain.NewAddressValidator(),
		generator:  gen,
		quota:      quota,
		cfg:        cfg,
		logger:     logger,
	}
}

// Generate 按策略生成 count 个别名并原子落库。
// 流程：条款检查 -> 基础地址解析 -> 策略与数量校验 -> 配额消费 ->
// catch-all 门禁（仅 custom）-> 生成 -> 批量写入。
// 配额在生成之前消费，生成失败不退还。
func (s *AliasService) Generate(input GenerateInput) ([]domain.Alias, error) {
	identity, err := s.identities.GetIdentity(input.IdentityID)
	if errors.Is(err, storage.ErrIdentityNotFound) {
		return nil, ErrTermsNotAccepted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if !identity.AcceptedTerms {
		return nil, ErrTermsNotAccepted
	}

	baseAddress := identity.BaseAddress
	if input.BaseAddressOverride != "" {
		local, domainName, err := s.validator.Parse(input.BaseAddressOverride)
		if err != nil {
			return nil, err
		}
		baseAddress = local + "@" + domainName
	}
	if baseAddress == "" {
		return nil, ErrBaseAddressNotSet
	}

	local, domainName, err := s.validator.Parse(baseAddress)
	if err != nil {
		return nil, fmt.Errorf("stored base address is invalid: %w", err)
	}

	max := s.cfg.StrategyMax(input.Strategy)
	if max == 0 {
		return nil, ErrUnknownStrategy
	}
	if input.Count < 1 || input.Count > max {
		return nil, ErrCountOutOfRange
	}

	if err := s.quota.CheckAndConsume(input.IdentityID); err != nil {
		return nil, err
	}

	var addresses []string
	switch input.Strategy {
	case StrategyPlus:
		addresses, err = s.generator.Plus(local, domainName, input.Count)
	case StrategyDot:
		addresses, err = s.generator.Dot(local, domainName, input.Count)
	case StrategyCustom:
		// custom 生成全新本地部分，必须先在域上开启 catch-all 才能收到邮件
		if !identity.CatchAll {
			return nil, ErrCatchAllRequired
		}
		addresses, err = s.generator.Custom(domainName, input.Count)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate aliases: %w", err)
	}

	now := time.Now()
	aliases := make([]*domain.Alias, 0, len(addresses))
	for _, addr := range addresses {
		aliases = append(aliases, &domain.Alias{
			ID:          uuid.New().String(),
			IdentityID:  input.IdentityID,
			BaseAddress: baseAddress,
			Address:     addr,
			Label:       input.Label,
			CreatedAt:   now,
		})
	}

	if err := s.aliases.InsertAliases(aliases); err != nil {
		return nil, fmt.Errorf("failed to persist aliases: %w", err)
	}

	s.logger.Info("别名生成成功",
		zap.Int64("identity_id", input.IdentityID),
		zap.String("strategy", input.Strategy),
		zap.Int("count", len(aliases)))

	result := make([]domain.Alias, 0, len(aliases))
	for _, a := range aliases {
		result = append(result, *a)
	}
	return result, nil
}

// List 按创建时间倒序返回身份的别名。limit 非正时使用默认值。
func (s *AliasService) List(identityID int64, limit int) ([]domain.Alias, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.aliases.ListAliases(identityID, limit)
}

// Delete 删除属于该身份的别名。别名不存在或属于他人时返回 false。
func (s *AliasService) Delete(identityID int64, aliasID string) (bool, error) {
	rows, err := s.aliases.DeleteAlias(identityID, aliasID)
	if err != nil {
		return false, fmt.Errorf("failed to delete alias: %w", err)
	}
	return rows > 0, nil
}

// ExportCSV 导出身份的全部别名为 CSV，列为 alias,id,created_at,base_email。
func (s *AliasService) ExportCSV(identityID int64) ([]byte, error) {
	aliases, err := s.aliases.ListAliases(identityID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"alias", "id", "created_at", "base_email"}); err != nil {
		return nil, err
	}
	for _, a := range aliases {
		record := []string{
			a.Address,
			a.ID,
			strconv.FormatInt(a.CreatedAt.Unix(), 10),
			a.BaseAddress,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
