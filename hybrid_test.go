package hybrid_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/hybrid"
)

type Order struct {
	ID       uint
	Quantity int
	Price    int
	Customer string
}

var Total = hybrid.NewProperty("total", func(o *Order, args hybrid.Args) int {
	return o.Quantity*o.Price - args.Int("discount", 0, 0)
}).Expression(func(args hybrid.Args, through string) hybrid.Expr {
	return hybrid.F(through + "quantity").Mul(hybrid.F(through + "price")).Sub(args.Int("discount", 0, 0))
})

var Shout = hybrid.NewProperty("shout", func(o *Order, _ hybrid.Args) string {
	return o.Customer + "!"
}).Expression(func(_ hybrid.Args, through string) hybrid.Expr {
	return hybrid.Concat(through+"customer", hybrid.Value("!"))
})

func newOrders(t *testing.T) *hybrid.Manager[Order] {
	t.Helper()

	db, err := hybrid.NewDbContext("file:"+uuid.NewString()+"?mode=memory&cache=shared", "sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	orders, err := hybrid.Objects[Order](db)
	require.NoError(t, err)
	require.NoError(t, db.EnsureCreated())

	ctx := context.Background()
	for _, o := range []*Order{
		{Quantity: 2, Price: 10, Customer: "ann"},
		{Quantity: 5, Price: 30, Customer: "bob"},
		{Quantity: 1, Price: 99, Customer: "cid"},
	} {
		require.NoError(t, orders.Create(ctx, o))
	}
	return orders
}

func TestHybridProperty(t *testing.T) {
	orders := newOrders(t)
	ctx := context.Background()

	all, err := orders.OrderBy("id").Find(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 20, Total.Value(&all[0]))
	assert.Equal(t, 15, Total.Value(&all[0], hybrid.Kw("discount", 5)))

	big, err := hybrid.Pluck[string](ctx, orders.Filter(Total.Expr().GT(50)).OrderBy("-total"), "customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "cid"}, big)

	discounted, err := hybrid.Pluck[int64](ctx, orders.Filter(Total.Expr(hybrid.Kw("discount", 100)).LT(0)).OrderBy("id"), "total")
	require.NoError(t, err)
	assert.Equal(t, []int64{-80, -1}, discounted)

	loud, err := hybrid.Pluck[string](ctx, orders.Annotate(Shout.Expr(hybrid.Alias("loud"))).OrderBy("loud"), "loud")
	require.NoError(t, err)
	assert.Equal(t, []string{"ann!", "bob!", "cid!"}, loud)
}

func TestHybridApplyAndQ(t *testing.T) {
	orders := newOrders(t)
	ctx := context.Background()

	n, err := hybrid.Apply(orders.All(), Total.Expr().Not().GTE(99)).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	q := hybrid.NewQ(Shout.Expr(hybrid.IgnoreCase()).Eq("ANN!")).Or(hybrid.NewQ(hybrid.Lookups{"price": 99}))
	names, err := hybrid.Pluck[string](ctx, orders.Filter(q).OrderBy("customer"), "customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"ann", "cid"}, names)

	names, err = hybrid.Pluck[string](ctx, orders.Exclude(q), "customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names)
}

func TestHybridErrors(t *testing.T) {
	orders := newOrders(t)

	assert.ErrorIs(t, orders.Filter(Total.Expr()).Err(), hybrid.ErrNotAResult)
	assert.ErrorIs(t, orders.Annotate(Total.Expr().Eq(1)).Err(), hybrid.ErrNotAnExpression)
	assert.ErrorIs(t, orders.Annotate(Total.Expr(hybrid.Alias("price"))).Err(), hybrid.ErrAliasConflict)
	assert.ErrorIs(t, orders.Filter(Total.Expr(hybrid.Through("customer__")).Eq(1)).Err(), hybrid.ErrInvalidThrough)

	_, err := hybrid.NewDbContext("", "oracle")
	assert.Error(t, err)
}
