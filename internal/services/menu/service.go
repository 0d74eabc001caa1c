package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"restaurant-pos/internal/cache"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

// Service manages the menu catalog
type Service struct {
	store  store.Store
	cache  cache.Cache
	logger *logger.Logger
}

// NewService creates a menu service. A nil cache disables listing caching.
func NewService(st store.Store, c cache.Cache, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:  st,
		cache:  c,
		logger: log,
	}
}

// CreateMenuItem adds a catalog entry with a unique name
func (s *Service) CreateMenuItem(ctx context.Context, req *models.MenuItemCreate, requestID string) (*models.MenuItem, error) {
	item := req.ToMenuItem()

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		taken, err := q.MenuItemNameTaken(ctx, item.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return models.DuplicateMenuItemName(item.Name)
		}
		return q.InsertMenuItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, requestID)
	s.logger.Debug("menu_item_created", "Menu item created", requestID, map[string]interface{}{
		"menu_item_id": item.ID,
		"name":         item.Name,
		"price":        item.Price,
	})
	return item, nil
}

// GetMenuItem returns one catalog entry
func (s *Service) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.store.Queries().GetMenuItem(ctx, id)
}

// UpdateMenuItem applies the fields present in req
func (s *Service) UpdateMenuItem(ctx context.Context, id int64, req *models.MenuItemUpdate, requestID string) (*models.MenuItem, error) {
	var item *models.MenuItem

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		item, err = q.GetMenuItem(ctx, id)
		if err != nil {
			return err
		}

		if name, renamed := req.RenamesTo(item.Name); renamed {
			taken, err := q.MenuItemNameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return models.DuplicateMenuItemName(name)
			}
		}

		req.Apply(item)
		return q.UpdateMenuItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, requestID)
	s.logger.Debug("menu_item_updated", "Menu item updated", requestID, map[string]interface{}{
		"menu_item_id": item.ID,
	})
	return item, nil
}

// DeleteMenuItem removes an entry together with the order lines that use it
func (s *Service) DeleteMenuItem(ctx context.Context, id int64, requestID string) error {
	deleted, err := s.store.Queries().DeleteMenuItem(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.MenuItemNotFound(id)
	}

	s.invalidate(ctx, requestID)
	s.logger.Debug("menu_item_deleted", "Menu item deleted", requestID, map[string]interface{}{
		"menu_item_id": id,
	})
	return nil
}

// ListMenuItems returns one filtered page, served from cache when possible
func (s *Service) ListMenuItems(ctx context.Context, filter models.MenuFilter, requestID string) (models.Page[models.MenuItem], error) {
	filter.Page = filter.Page.Normalize()
	key := listKey(filter)

	// the generation is read before the store so a write committed while
	// loading retires the entry stored below
	gen, err := s.cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("cache_get_failed", "Failed to read menu listing cache generation", requestID, map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	if cacheable {
		if cached, ok := s.cachedPage(ctx, gen, key, requestID); ok {
			return cached, nil
		}
	}

	items, total, err := s.store.Queries().ListMenuItems(ctx, filter)
	if err != nil {
		return models.Page[models.MenuItem]{}, err
	}
	page := models.NewPage(items, total, filter.Page)

	if !cacheable {
		return page, nil
	}
	if body, err := json.Marshal(page); err == nil {
		if err := s.cache.Set(ctx, gen, key, body); err != nil {
			s.logger.Warn("cache_set_failed", "Failed to cache menu listing", requestID, map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return page, nil
}

func (s *Service) cachedPage(ctx context.Context, gen int64, key, requestID string) (models.Page[models.MenuItem], bool) {
	var page models.Page[models.MenuItem]

	body, ok, err := s.cache.Get(ctx, gen, key)
	if err != nil {
		s.logger.Warn("cache_get_failed", "Failed to read menu listing cache", requestID, map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return page, false
	}
	if !ok {
		return page, false
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return page, false
	}
	return page, true
}

func (s *Service) invalidate(ctx context.Context, requestID string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("cache_invalidate_failed", "Failed to invalidate menu listing cache", requestID, err, nil)
	}
}

// listKey encodes a normalized filter; url.Values sorts and escapes keys
func listKey(filter models.MenuFilter) string {
	v := url.Values{}
	if filter.Category != nil {
		v.Set("category", *filter.Category)
	}
	if filter.Search != nil {
		v.Set("search", *filter.Search)
	}
	if filter.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*filter.MinPrice, 'g', -1, 64))
	}
	if filter.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*filter.MaxPrice, 'g', -1, 64))
	}
	v.Set("page", strconv.Itoa(filter.Page.Page))
	v.Set("size", strconv.Itoa(filter.Page.Size))
	return fmt.Sprintf("menu:list:%s", v.Encode())
}
