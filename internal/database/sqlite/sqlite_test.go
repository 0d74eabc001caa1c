package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func seedMenu(t *testing.T, q store.Queries, name string, price float64, category string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Price: price, Category: ptr(category)}
	require.NoError(t, q.InsertMenuItem(context.Background(), item))
	return item
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := testutil.NewStore(t)
	require.NoError(t, db.RunMigrations(context.Background()))
}

func TestMenuItem_CRUD(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	cola := seedMenu(t, q, "Cola", 3.0, "drink")
	assert.Greater(t, cola.ID, int64(0))

	got, err := q.GetMenuItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cola", got.Name)
	assert.Equal(t, 3.0, got.Price)
	require.NotNil(t, got.Category)
	assert.Equal(t, "drink", *got.Category)
	assert.Nil(t, got.Description)

	got.Price = 3.5
	got.Description = ptr("cold")
	require.NoError(t, q.UpdateMenuItem(ctx, got))

	got, err = q.GetMenuItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Price)
	assert.Equal(t, "cold", *got.Description)

	deleted, err := q.DeleteMenuItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = q.DeleteMenuItem(ctx, cola.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = q.GetMenuItem(ctx, cola.ID)
	var nf *models.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, cola.ID, nf.ID)
}

func TestMenuItem_DuplicateName(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	seedMenu(t, q, "Cola", 3.0, "drink")
	err := q.InsertMenuItem(ctx, &models.MenuItem{Name: "Cola", Price: 1})

	var conflict *models.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)

	taken, err := q.MenuItemNameTaken(ctx, "Cola", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestListMenuItems_Filters(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	seedMenu(t, q, "Margherita Pizza", 12.5, "pizza")
	seedMenu(t, q, "Caesar Salad", 8.9, "salad")
	seedMenu(t, q, "Cola", 3.0, "drink")
	seedMenu(t, q, "Iced Coffee", 4.5, "drink")

	tests := []struct {
		name   string
		filter models.MenuFilter
		want   []string
	}{
		{"all", models.MenuFilter{}, []string{"Margherita Pizza", "Caesar Salad", "Cola", "Iced Coffee"}},
		{"category substring", models.MenuFilter{Category: ptr("DRI")}, []string{"Cola", "Iced Coffee"}},
		{"price range", models.MenuFilter{MinPrice: ptr(4.0), MaxPrice: ptr(10.0)}, []string{"Caesar Salad", "Iced Coffee"}},
		{"name search", models.MenuFilter{Search: ptr("co")}, []string{"Cola", "Iced Coffee"}},
		{"wildcards are literal", models.MenuFilter{Search: ptr("%")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Page = models.PageRequest{}.Normalize()
			items, total, err := q.ListMenuItems(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)

			var names []string
			for _, item := range items {
				names = append(names, item.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestListMenuItems_Pagination(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seedMenu(t, q, name, 1, "misc")
	}

	items, total, err := q.ListMenuItems(ctx, models.MenuFilter{Page: models.PageRequest{Page: 2, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "C", items[0].Name)
	assert.Equal(t, "D", items[1].Name)
}

func TestOrder_CascadeFromMenuItem(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	cola := seedMenu(t, q, "Cola", 3.0, "drink")
	salad := seedMenu(t, q, "Salad", 8.0, "salad")

	order := &models.Order{Status: "pending", TotalPrice: 14, CreatedAt: time.Now().UTC()}
	require.NoError(t, q.InsertOrder(ctx, order))
	for _, line := range []models.OrderItem{
		{OrderID: order.ID, MenuItemID: cola.ID, Quantity: 2, Price: 6},
		{OrderID: order.ID, MenuItemID: salad.ID, Quantity: 1, Price: 8},
	} {
		require.NoError(t, q.InsertOrderItem(ctx, &line))
	}

	deleted, err := q.DeleteMenuItem(ctx, cola.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	got, err := q.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, salad.ID, got.Items[0].MenuItemID)
}

func TestOrder_DeleteCascadesItems(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	cola := seedMenu(t, q, "Cola", 3.0, "drink")
	order := &models.Order{Status: "pending", TotalPrice: 3, CreatedAt: time.Now().UTC()}
	require.NoError(t, q.InsertOrder(ctx, order))
	require.NoError(t, q.InsertOrderItem(ctx, &models.OrderItem{OrderID: order.ID, MenuItemID: cola.ID, Quantity: 1, Price: 3}))

	deleted, err := q.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// the menu item can now be removed without any line item left behind
	orders, total, err := q.ListOrders(ctx, models.OrderFilter{Page: models.PageRequest{}.Normalize()})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := db.WithTx(ctx, func(q store.Queries) error {
		if err := q.InsertMenuItem(ctx, &models.MenuItem{Name: "Ghost", Price: 1}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, total, err := db.Queries().ListMenuItems(ctx, models.MenuFilter{Page: models.PageRequest{}.Normalize()})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListOrders_FiltersAndItems(t *testing.T) {
	db := testutil.NewStore(t)
	ctx := context.Background()
	q := db.Queries()

	cola := seedMenu(t, q, "Cola", 3.0, "drink")
	created := time.Date(2026, 10, 15, 12, 30, 0, 123456000, time.UTC)

	for i, status := range []string{"pending", "completed", "pending"} {
		order := &models.Order{Status: status, TotalPrice: float64(3 * (i + 1)), CreatedAt: created}
		require.NoError(t, q.InsertOrder(ctx, order))
		require.NoError(t, q.InsertOrderItem(ctx, &models.OrderItem{
			OrderID: order.ID, MenuItemID: cola.ID, Quantity: i + 1, Price: order.TotalPrice,
		}))
	}

	orders, total, err := q.ListOrders(ctx, models.OrderFilter{
		Status: ptr("pend"),
		Page:   models.PageRequest{}.Normalize(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "pending", o.Status)
		require.Len(t, o.Items, 1)
		assert.Equal(t, o.TotalPrice, o.Items[0].Price)
		assert.True(t, created.Equal(o.CreatedAt))
	}

	orders, total, err = q.ListOrders(ctx, models.OrderFilter{
		MinTotal: ptr(4.0),
		MaxTotal: ptr(6.0),
		Page:     models.PageRequest{}.Normalize(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "completed", orders[0].Status)
}
