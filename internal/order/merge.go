package order

// mergePlan is the minimal statement set reconciling an order's committed
// items with a desired list. The three identity sets are disjoint, so the
// statements can run in any order inside the transaction.
type mergePlan struct {
	inserts []Item
	updates []Item
	deletes []int64
}

func (p mergePlan) empty() bool {
	return len(p.inserts) == 0 && len(p.updates) == 0 && len(p.deletes) == 0
}

// planMerge partitions desired against existing, keyed by item identity.
// Items without an identity are inserts. Items whose identity is unknown to
// the committed set are also inserts: the row may have been deleted
// concurrently, and re-inserting preserves the caller's intent rather than
// silently dropping the line. Items whose comparable fields are unchanged
// produce no statement at all; minimizing write volume is the point of
// diffing instead of delete-all-and-reinsert.
func planMerge(existing, desired []Item) mergePlan {
	current := make(map[int64]Item, len(existing))
	for _, item := range existing {
		current[item.ID] = item
	}

	var plan mergePlan
	kept := make(map[int64]struct{}, len(desired))
	for _, want := range desired {
		have, known := current[want.ID]
		if want.ID <= 0 || !known {
			plan.inserts = append(plan.inserts, want)
			continue
		}
		kept[want.ID] = struct{}{}
		if itemChanged(have, want) {
			plan.updates = append(plan.updates, want)
		}
	}

	for _, have := range existing {
		if _, ok := kept[have.ID]; !ok {
			plan.deletes = append(plan.deletes, have.ID)
		}
	}
	return plan
}

// itemChanged compares every field that affects downstream aggregates,
// including the computed total.
func itemChanged(have, want Item) bool {
	return have.ProductID != want.ProductID ||
		have.Quantity != want.Quantity ||
		have.UnitPrice != want.UnitPrice ||
		have.TotalPrice != want.TotalPrice
}
