package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCatalogLimit = 20

// PointsForPrice converts a marketplace price into points: floor(price * ratio).
func PointsForPrice(price, ratio decimal.Decimal) int {
	return int(price.Mul(ratio).Floor().IntPart())
}

// StoreService is the driver-facing catalog, cart and wishlist, plus the
// sponsor's store settings and purchase history.
type StoreService interface {
	Settings(ctx context.Context, sponsorCode uint) (*dto.StoreSettingsResponse, error)
	UpdateSettings(ctx context.Context, actor model.ActingIdentity, req dto.StoreSettingsRequest) (*dto.StoreSettingsResponse, error)

	Search(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, q dto.CatalogQuery) ([]dto.CatalogItem, error)

	Cart(ctx context.Context, actor model.ActingIdentity, sponsorCode uint) (*dto.CartResponse, error)
	AddToCart(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, req dto.AddCartItemRequest) (*dto.CartResponse, error)
	UpdateCartItem(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, itemID string, quantity int) (*dto.CartResponse, error)
	RemoveCartItem(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, itemID string) (*dto.CartResponse, error)

	Wishlist(ctx context.Context, actor model.ActingIdentity) ([]dto.WishlistItemResponse, error)
	AddToWishlist(ctx context.Context, actor model.ActingIdentity, req dto.WishlistAddRequest) (*dto.WishlistItemResponse, error)
	RemoveFromWishlist(ctx context.Context, actor model.ActingIdentity, itemID string) error
	MoveToCart(ctx context.Context, actor model.ActingIdentity, itemID string, sponsorCode uint) (*dto.CartResponse, error)

	DriverPurchases(ctx context.Context, driverCode uint) ([]dto.PurchaseResponse, error)
	SponsorPurchases(ctx context.Context, sponsorCode uint) ([]dto.PurchaseResponse, error)
}

type StoreDeps struct {
	StoreSettings repository.StoreSettingsRepository
	Carts         repository.CartRepository
	Wishlists     repository.WishlistRepository
	Purchases     repository.PurchaseRepository
	Associations  repository.AssociationRepository
	Catalog       CatalogClient
	// Cache is optional.
	Cache CatalogCache
}

type storeService struct {
	StoreDeps
	now func() time.Time
}

func NewStoreService(deps StoreDeps, opts ...Option) StoreService {
	o := applyOptions(opts)
	return &storeService{StoreDeps: deps, now: o.now}
}

func (s *storeService) settings(ctx context.Context, sponsorCode uint) (*model.StoreSettings, error) {
	st, err := s.StoreSettings.FindBySponsor(ctx, sponsorCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.StoreSettings{
			SponsorCode: sponsorCode,
			CategoryID:  model.DefaultCategoryID,
			PointRatio:  decimal.NewFromInt(model.DefaultPointRatio),
		}, nil
	}
	return st, err
}

func settingsToResponse(st *model.StoreSettings) *dto.StoreSettingsResponse {
	return &dto.StoreSettingsResponse{SponsorCode: st.SponsorCode, CategoryID: st.CategoryID, PointRatio: st.PointRatio}
}

func (s *storeService) Settings(ctx context.Context, sponsorCode uint) (*dto.StoreSettingsResponse, error) {
	st, err := s.settings(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}
	return settingsToResponse(st), nil
}

func (s *storeService) UpdateSettings(ctx context.Context, actor model.ActingIdentity, req dto.StoreSettingsRequest) (*dto.StoreSettingsResponse, error) {
	if actor.Effective.Role != model.RoleSponsor {
		return nil, denied("only sponsors configure a store")
	}
	if !req.PointRatio.IsPositive() {
		return nil, invalid("point_ratio", "must be greater than zero")
	}
	st := &model.StoreSettings{
		SponsorCode: actor.Effective.Code,
		CategoryID:  req.CategoryID,
		PointRatio:  req.PointRatio,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.StoreSettings.Upsert(ctx, st); err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, fmt.Sprintf("%d:", st.SponsorCode)); err != nil {
			log.Warn().Err(err).Uint("sponsor", st.SponsorCode).Msg("store: catalog cache invalidation failed")
		}
	}
	return settingsToResponse(st), nil
}

// requireShopper checks that the acting driver is enrolled with sponsorCode.
// A sponsor browsing its own store is allowed for catalog reads only.
func (s *storeService) requireShopper(ctx context.Context, actor model.ActingIdentity, sponsorCode uint) (*model.Association, error) {
	if actor.Effective.Role != model.RoleDriver {
		return nil, denied("only drivers can shop")
	}
	assoc, err := s.Associations.Find(ctx, actor.Effective.Code, sponsorCode)
	if err != nil {
		return nil, lookupErr(err, "sponsor program")
	}
	return assoc, nil
}

func catalogErr(err error) error {
	if errors.Is(err, infra.ErrCatalogItemNotFound) {
		return notFound("catalog item")
	}
	log.Warn().Err(err).Msg("store: catalog call failed")
	return fmt.Errorf("catalog: %w", ErrUnavailable)
}

func (s *storeService) Search(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, q dto.CatalogQuery) ([]dto.CatalogItem, error) {
	if !(actor.Effective.Role == model.RoleSponsor && actor.Effective.Code == sponsorCode) {
		if _, err := s.requireShopper(ctx, actor, sponsorCode); err != nil {
			return nil, err
		}
	}
	st, err := s.settings(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}

	search := infra.CatalogSearch{
		CategoryID: st.CategoryID,
		Keywords:   strings.TrimSpace(q.Keywords),
		Limit:      q.Limit,
	}
	if search.Limit <= 0 {
		search.Limit = defaultCatalogLimit
	}
	if q.MinPrice != nil {
		v := decimal.NewFromFloat(*q.MinPrice)
		search.MinPrice = &v
	}
	if q.MaxPrice != nil {
		v := decimal.NewFromFloat(*q.MaxPrice)
		search.MaxPrice = &v
	}
	if search.MinPrice != nil && search.MaxPrice != nil && search.MinPrice.GreaterThan(*search.MaxPrice) {
		return nil, invalid("min_price", "must not exceed max_price")
	}

	key := fmt.Sprintf("%d:%s:%s:%s:%s:%d", sponsorCode, search.CategoryID, strings.ToLower(search.Keywords),
		decimalKey(search.MinPrice), decimalKey(search.MaxPrice), search.Limit)
	var items []infra.CatalogItem
	if s.Cache == nil || !s.Cache.Get(ctx, key, &items) {
		items, err = s.Catalog.Search(ctx, search)
		if err != nil {
			return nil, catalogErr(err)
		}
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, key, items); err != nil {
				log.Debug().Err(err).Msg("store: catalog cache write failed")
			}
		}
	}

	resp := make([]dto.CatalogItem, len(items))
	for i, it := range items {
		resp[i] = dto.CatalogItem{
			ItemID:   it.ID,
			Title:    it.Title,
			Price:    it.Price,
			Points:   PointsForPrice(it.Price, st.PointRatio),
			ImageURL: it.ImageURL,
		}
	}
	return resp, nil
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func (s *storeService) Cart(ctx context.Context, actor model.ActingIdentity, sponsorCode uint) (*dto.CartResponse, error) {
	assoc, err := s.requireShopper(ctx, actor, sponsorCode)
	if err != nil {
		return nil, err
	}
	return s.cart(ctx, actor.Effective.Code, assoc)
}

func (s *storeService) cart(ctx context.Context, driverCode uint, assoc *model.Association) (*dto.CartResponse, error) {
	items, err := s.Carts.ListBySponsor(ctx, nil, driverCode, assoc.SponsorCode)
	if err != nil {
		return nil, err
	}
	resp := &dto.CartResponse{SponsorCode: assoc.SponsorCode, Balance: assoc.Points, Items: make([]dto.CartItemResponse, len(items))}
	for i, it := range items {
		resp.Items[i] = dto.CartItemResponse{
			ID:        it.ID,
			ItemID:    it.ItemID,
			Title:     it.Title,
			Price:     it.Price,
			Points:    it.Points,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
			ImageURL:  it.ImageURL,
		}
		resp.TotalPoints += it.LineTotal()
	}
	return resp, nil
}

// addItem prices the item against the sponsor's current ratio and upserts
// the cart line.
func (s *storeService) addItem(ctx context.Context, driverCode, sponsorCode uint, itemID string, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	quantity = min(quantity, model.MaxCartQuantity)
	st, err := s.settings(ctx, sponsorCode)
	if err != nil {
		return err
	}
	item, err := s.Catalog.GetItem(ctx, itemID)
	if err != nil {
		return catalogErr(err)
	}
	return s.Carts.Add(ctx, &model.CartItem{
		AccountCode: driverCode,
		SponsorCode: sponsorCode,
		ItemID:      item.ID,
		Title:       item.Title,
		Price:       item.Price,
		Points:      PointsForPrice(item.Price, st.PointRatio),
		ImageURL:    item.ImageURL,
		Quantity:    quantity,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *storeService) AddToCart(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	assoc, err := s.requireShopper(ctx, actor, sponsorCode)
	if err != nil {
		return nil, err
	}
	if err := s.addItem(ctx, actor.Effective.Code, sponsorCode, req.ItemID, req.Quantity); err != nil {
		return nil, err
	}
	return s.cart(ctx, actor.Effective.Code, assoc)
}

func (s *storeService) UpdateCartItem(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, itemID string, quantity int) (*dto.CartResponse, error) {
	if quantity <= 0 || quantity > model.MaxCartQuantity {
		return nil, invalid("quantity", fmt.Sprintf("must be between 1 and %d", model.MaxCartQuantity))
	}
	assoc, err := s.requireShopper(ctx, actor, sponsorCode)
	if err != nil {
		return nil, err
	}
	ok, err := s.Carts.UpdateQuantity(ctx, actor.Effective.Code, sponsorCode, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("cart item")
	}
	return s.cart(ctx, actor.Effective.Code, assoc)
}

func (s *storeService) RemoveCartItem(ctx context.Context, actor model.ActingIdentity, sponsorCode uint, itemID string) (*dto.CartResponse, error) {
	assoc, err := s.requireShopper(ctx, actor, sponsorCode)
	if err != nil {
		return nil, err
	}
	ok, err := s.Carts.Remove(ctx, actor.Effective.Code, sponsorCode, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("cart item")
	}
	return s.cart(ctx, actor.Effective.Code, assoc)
}

func (s *storeService) Wishlist(ctx context.Context, actor model.ActingIdentity) ([]dto.WishlistItemResponse, error) {
	if actor.Effective.Role != model.RoleDriver {
		return nil, denied("only drivers keep a wishlist")
	}
	items, err := s.Wishlists.List(ctx, actor.Effective.Code)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.WishlistItemResponse, len(items))
	for i, it := range items {
		resp[i] = wishlistToResponse(it)
	}
	return resp, nil
}

func wishlistToResponse(it model.WishlistItem) dto.WishlistItemResponse {
	return dto.WishlistItemResponse{ID: it.ID, ItemID: it.ItemID, Title: it.Title, Price: it.Price, ImageURL: it.ImageURL}
}

func (s *storeService) AddToWishlist(ctx context.Context, actor model.ActingIdentity, req dto.WishlistAddRequest) (*dto.WishlistItemResponse, error) {
	if _, err := s.requireShopper(ctx, actor, req.SponsorCode); err != nil {
		return nil, err
	}
	item, err := s.Catalog.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, catalogErr(err)
	}
	row := &model.WishlistItem{
		AccountCode: actor.Effective.Code,
		ItemID:      item.ID,
		Title:       item.Title,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.Wishlists.Add(ctx, row); err != nil {
		return nil, writeErr(err, "item is already on your wishlist")
	}
	resp := wishlistToResponse(*row)
	return &resp, nil
}

func (s *storeService) RemoveFromWishlist(ctx context.Context, actor model.ActingIdentity, itemID string) error {
	if actor.Effective.Role != model.RoleDriver {
		return denied("only drivers keep a wishlist")
	}
	ok, err := s.Wishlists.Remove(ctx, actor.Effective.Code, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("wishlist item")
	}
	return nil
}

func (s *storeService) MoveToCart(ctx context.Context, actor model.ActingIdentity, itemID string, sponsorCode uint) (*dto.CartResponse, error) {
	assoc, err := s.requireShopper(ctx, actor, sponsorCode)
	if err != nil {
		return nil, err
	}
	if _, err := s.Wishlists.Find(ctx, actor.Effective.Code, itemID); err != nil {
		return nil, lookupErr(err, "wishlist item")
	}
	if err := s.addItem(ctx, actor.Effective.Code, sponsorCode, itemID, 1); err != nil {
		return nil, err
	}
	if _, err := s.Wishlists.Remove(ctx, actor.Effective.Code, itemID); err != nil {
		return nil, err
	}
	return s.cart(ctx, actor.Effective.Code, assoc)
}

func (s *storeService) DriverPurchases(ctx context.Context, driverCode uint) ([]dto.PurchaseResponse, error) {
	list, err := s.Purchases.ListByAccount(ctx, driverCode)
	if err != nil {
		return nil, err
	}
	return purchasesToResponse(list), nil
}

func (s *storeService) SponsorPurchases(ctx context.Context, sponsorCode uint) ([]dto.PurchaseResponse, error) {
	list, err := s.Purchases.ListBySponsor(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}
	return purchasesToResponse(list), nil
}

func purchasesToResponse(list []model.Purchase) []dto.PurchaseResponse {
	resp := make([]dto.PurchaseResponse, len(list))
	for i, p := range list {
		resp[i] = purchaseToResponse(p)
	}
	return resp
}
