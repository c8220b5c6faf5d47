package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(id, orderID, productID int64, qty int32, unitPrice int64) Item {
	return Item{
		ID:         id,
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  unitPrice,
		TotalPrice: int64(qty) * unitPrice,
	}
}

func Test_PlanMerge_Minimality(t *testing.T) {
	existing := []Item{item(1, 1, 100, 2, 500), item(2, 1, 101, 3, 200)}
	desired := []Item{item(1, 1, 100, 2, 500), item(0, 1, 102, 5, 300)}

	plan := planMerge(existing, desired)

	assert.Len(t, plan.deletes, 1, "B removed")
	assert.Equal(t, int64(2), plan.deletes[0])
	assert.Len(t, plan.inserts, 1, "C added")
	assert.Equal(t, int64(102), plan.inserts[0].ProductID)
	assert.Empty(t, plan.updates, "unchanged A issues no statement")
}

func Test_PlanMerge_ChangedFields(t *testing.T) {
	base := item(1, 1, 100, 2, 500)
	testCases := []struct {
		name   string
		mutate func(Item) Item
	}{
		{name: "quantity", mutate: func(i Item) Item { i.Quantity = 3; return i }},
		{name: "unit price", mutate: func(i Item) Item { i.UnitPrice = 600; return i }},
		{name: "product reference", mutate: func(i Item) Item { i.ProductID = 200; return i }},
		{name: "supplied total only", mutate: func(i Item) Item { i.TotalPrice = 999; return i }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan := planMerge([]Item{base}, []Item{tc.mutate(base)})

			assert.Len(t, plan.updates, 1)
			assert.Empty(t, plan.inserts)
			assert.Empty(t, plan.deletes)
		})
	}
}

func Test_PlanMerge_UnknownIdentityBecomesInsert(t *testing.T) {
	// The caller references item 7, but it was deleted concurrently and is no
	// longer in the committed set. The line is re-inserted, not dropped.
	desired := []Item{item(7, 1, 100, 2, 500)}

	plan := planMerge(nil, desired)

	assert.Len(t, plan.inserts, 1)
	assert.Empty(t, plan.updates)
	assert.Empty(t, plan.deletes)
}

func Test_PlanMerge_EmptyDesiredDeletesAll(t *testing.T) {
	existing := []Item{item(1, 1, 100, 2, 500), item(2, 1, 101, 3, 200)}

	plan := planMerge(existing, nil)

	assert.ElementsMatch(t, []int64{1, 2}, plan.deletes)
	assert.Empty(t, plan.inserts)
	assert.Empty(t, plan.updates)
}

func Test_PlanMerge_NoChanges(t *testing.T) {
	existing := []Item{item(1, 1, 100, 2, 500)}

	plan := planMerge(existing, existing)

	assert.True(t, plan.empty())
}
