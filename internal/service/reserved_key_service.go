package service

import (
	"context"

	"shorturl-go/internal/model"
	"shorturl-go/internal/registry"
	"shorturl-go/response"
)

// ReservedKeyService 保留短键管理（api、admin 等路由名不可被占用为短键）
type ReservedKeyService struct {
	registry *registry.URLRegistry
}

func NewReservedKeyService(reg *registry.URLRegistry) *ReservedKeyService {
	return &ReservedKeyService{registry: reg}
}

// CreateReservedKey 登记保留短键
func (s *ReservedKeyService) CreateReservedKey(ctx context.Context, shortKey string) (*model.ReservedKey, error) {
	reserved, err := s.registry.CreateReservedKey(ctx, shortKey)
	if err != nil {
		return nil, mapRegistryError(err)
	}
	return reserved, nil
}

// ListReservedKeys 分页查询保留短键
func (s *ReservedKeyService) ListReservedKeys(ctx context.Context, page, size int) (*response.PageResponse[model.ReservedKey], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	keys, total, err := s.registry.ListReservedKeys(ctx, page, size)
	if err != nil {
		return nil, mapRegistryError(err)
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.ReservedKey]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      keys,
	}, nil
}

// DeleteReservedKey 删除保留短键
func (s *ReservedKeyService) DeleteReservedKey(ctx context.Context, id uint) error {
	if err := s.registry.DeleteReservedKey(ctx, id); err != nil {
		return mapRegistryError(err)
	}
	return nil
}
