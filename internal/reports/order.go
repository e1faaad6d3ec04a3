package reports

import (
	"context"
	"fmt"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"

	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/posapi"
)

// lookupLimit bounds concurrent product lookups for one order.
const lookupLimit = 4

// OrderDetail is an order with a display name for each item's product.
type OrderDetail struct {
	Order posapi.Order
	Names map[int64]string
}

// ProductName returns the item's product name, or its number when the name
// could not be found.
func (d OrderDetail) ProductName(productID int64) string {
	if name, ok := d.Names[productID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Product #%d", productID)
}

// Order fetches order id. Items that arrive without their product are named
// from the cache or by fetching the product. A failed product lookup only
// costs that item its name.
func (s *Service) Order(ctx context.Context, id int64) (OrderDetail, error) {
	order, err := s.api.GetOrder(ctx, id)
	if err != nil {
		return OrderDetail{}, failure("fetch order", err)
	}

	d := OrderDetail{Order: *order, Names: make(map[int64]string, len(order.Items))}
	var missing []int64
	for _, item := range order.Items {
		if _, seen := d.Names[item.ProductID]; seen {
			continue
		}
		if item.Product != nil && item.Product.Name != "" {
			d.Names[item.ProductID] = item.Product.Name
			s.names.Set(item.ProductID, item.Product.Name, ttlcache.DefaultTTL)
			continue
		}
		if cached := s.names.Get(item.ProductID); cached != nil {
			d.Names[item.ProductID] = cached.Value()
			continue
		}
		d.Names[item.ProductID] = ""
		missing = append(missing, item.ProductID)
	}
	if len(missing) == 0 {
		return d, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(lookupLimit)
	for _, productID := range missing {
		g.Go(func() error {
			p, err := s.api.GetProduct(ctx, productID)
			if err != nil {
				s.logger.V(obs.VERBOSE).Info("product lookup failed", "order", id, "product", productID, "error", err.Error())
				return nil
			}
			s.names.Set(productID, p.Name, ttlcache.DefaultTTL)
			mu.Lock()
			d.Names[productID] = p.Name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return d, nil
}
