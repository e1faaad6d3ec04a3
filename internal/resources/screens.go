package resources

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/five82/tally/internal/listsync"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

// Screen describes one list resource: where it lives and which filters it
// accepts, with their default values.
type Screen struct {
	Name     string
	Path     string
	Defaults query.Filters
}

// Singular is the record noun used in failure messages.
func (s Screen) Singular() string {
	switch s.Name {
	case "categories":
		return "category"
	case "stock log":
		return "stock log entry"
	default:
		return strings.TrimSuffix(s.Name, "s")
	}
}

// Resource is the path without slashes, as used for mutations.
func (s Screen) Resource() string { return strings.Trim(s.Path, "/") }

var (
	Products = Screen{
		Name:     "products",
		Path:     "/products",
		Defaults: query.Filters{"search": "", "category_id": "", "only_active": "false"},
	}
	Orders = Screen{
		Name:     "orders",
		Path:     "/orders",
		Defaults: query.Filters{"userId": "", "startDate": "", "endDate": "", "status": ""},
	}
	Categories = Screen{Name: "categories", Path: "/categories"}
	Users      = Screen{Name: "users", Path: "/users"}
)

// StockLog is the inventory history of one product.
func StockLog(productID int64) Screen {
	return Screen{Name: "stock log", Path: "/stock/log/" + strconv.FormatInt(productID, 10)}
}

// OrderStatuses are the values accepted by the status filter and the order
// status update.
var OrderStatuses = []string{"pending", "completed", "shipped", "delivered", "cancelled"}

// NewController builds a list controller for screen backed by client. The
// screen's defaults are merged under cfg.Defaults.
func NewController[T any](client *posapi.Client, screen Screen, cfg listsync.Config[T]) *listsync.Controller[T] {
	q := query.New("fetch "+screen.Name, func(ctx context.Context, req query.Request) (query.Page[T], error) {
		resp, err := posapi.List[T](ctx, client, screen.Path, req.Values())
		if err != nil {
			return query.Page[T]{}, err
		}
		return query.Page[T]{Rows: resp.Data, Total: resp.Total}, nil
	})
	defaults := screen.Defaults.Clone()
	for k, v := range cfg.Defaults {
		defaults[k] = v
	}
	cfg.Defaults = defaults
	return listsync.New(q, cfg)
}

// Config configures a Set.
type Config struct {
	PageSize int
	// User is the signed-in user. Non-admins only ever see their own orders.
	User   *posapi.User
	Logger logr.Logger
	// OnChange is told which screen changed state.
	OnChange func(screen string)
}

// Set holds the list controllers for one signed-in session.
type Set struct {
	Products   *listsync.Controller[posapi.Product]
	Orders     *listsync.Controller[posapi.Order]
	Categories *listsync.Controller[posapi.Category]
	Users      *listsync.Controller[posapi.User]

	CategoryOptions *CategoryOptions
	Mutator         *Mutator

	client *posapi.Client
	cfg    Config
}

// NewSet builds Idle controllers for every screen.
func NewSet(client *posapi.Client, cfg Config) *Set {
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	var orderPins query.Filters
	if cfg.User != nil && !cfg.User.IsAdmin() {
		orderPins = query.Filters{"userId": strconv.FormatInt(cfg.User.ID, 10)}
	}

	options := NewCategoryOptions(client, DefaultCategoryTTL)
	return &Set{
		Products:        NewController(client, Products, configFor[posapi.Product](cfg, Products, nil)),
		Orders:          NewController(client, Orders, configFor[posapi.Order](cfg, Orders, orderPins)),
		Categories:      NewController(client, Categories, configFor[posapi.Category](cfg, Categories, nil)),
		Users:           NewController(client, Users, configFor[posapi.User](cfg, Users, nil)),
		CategoryOptions: options,
		Mutator:         NewMutator(client, options, cfg.Logger),
		client:          client,
		cfg:             cfg,
	}
}

// StockLog builds a controller for one product's inventory history.
func (s *Set) StockLog(productID int64) *listsync.Controller[posapi.InventoryLog] {
	screen := StockLog(productID)
	return NewController(s.client, screen, configFor[posapi.InventoryLog](s.cfg, screen, nil))
}

// MountProducts loads the products list and the category options together.
// Both requests run to completion; the first error is returned.
func (s *Set) MountProducts(ctx context.Context) ([]posapi.Category, error) {
	var (
		g          errgroup.Group
		categories []posapi.Category
	)
	g.Go(func() error {
		return s.Products.Mount(ctx)
	})
	g.Go(func() error {
		var err error
		categories, err = s.CategoryOptions.Get(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return categories, err
	}
	return categories, nil
}

// Close releases background resources.
func (s *Set) Close() {
	s.CategoryOptions.Close()
}

func configFor[T any](cfg Config, screen Screen, pinned query.Filters) listsync.Config[T] {
	out := listsync.Config[T]{
		Pinned:   pinned,
		PageSize: cfg.PageSize,
		Logger:   cfg.Logger,
	}
	if cfg.OnChange != nil {
		name := screen.Name
		out.OnChange = func(listsync.State[T]) { cfg.OnChange(name) }
	}
	return out
}
