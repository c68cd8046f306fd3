package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

const maxLineQuantity = 50

// Snapshot is the cart as returned to clients and consumed by checkout.
type Snapshot struct {
	VendorID      int64
	Items         []Line
	SubtotalPaise int64
}

// Line is a cart row joined with its current product snapshot.
type Line struct {
	ProductID      int64
	ProductName    string
	UnitPricePaise int64
	Quantity       int
	SubtotalPaise  int64
	IsAvailable    bool
}

// Service defines cart operations.
type Service interface {
	Get(ctx context.Context, userID int64) (*Snapshot, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*Snapshot, error)
	UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*Snapshot, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*Snapshot, error)
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	repo     Repository
	products ProductFinder
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products ProductFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*Snapshot, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.FindItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	return buildSnapshot(items), nil
}

func (s *service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Snapshot, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 || quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}

	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is unavailable")
	}

	existing, err := s.repo.FindItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	// Carts hold one vendor at a time so checkout maps to a single order.
	for _, item := range existing {
		if item.VendorID != product.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart holds items from another vendor")
		}
		break
	}

	newQty := quantity
	for _, item := range existing {
		if item.ProductID == productID {
			newQty += item.Quantity
			break
		}
	}
	if newQty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}

	err = s.repo.Upsert(ctx, &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		VendorID:  product.VendorID,
		Quantity:  newQty,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*Snapshot, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 0 || quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	item, err := s.repo.FindItem(ctx, userID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	item.Quantity = quantity
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID int64) (*Snapshot, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func buildSnapshot(items []models.CartItem) *Snapshot {
	snap := &Snapshot{Items: make([]Line, 0, len(items))}
	for _, item := range items {
		line := Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.UnitPricePaise = item.Product.PricePaise
			line.SubtotalPaise = item.Product.PricePaise * int64(item.Quantity)
			line.IsAvailable = item.Product.IsAvailable
		}
		snap.VendorID = item.VendorID
		snap.SubtotalPaise += line.SubtotalPaise
		snap.Items = append(snap.Items, line)
	}
	return snap
}
