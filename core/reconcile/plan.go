package reconcile

// BuildPlan computes the diff between the current listing set and the current
// collection items.
//
// Items are indexed by the value of keyField. When several items carry the same key
// the last one wins the index; the shadowed items are neither updated nor deleted.
// Listings sharing a key are collapsed to the last occurrence. Listings without a key
// are skipped. Every item whose key is absent from the listing set, including items
// without a key, is planned for deletion, so an item is never both updated and deleted.
func BuildPlan[L any](listings []L, items []Item, key func(L) string, keyField string) *Plan[L] {
	if keyField == "" {
		keyField = DefaultKeyField
	}

	plan := &Plan[L]{
		Upserts: []Action[L]{},
		Deletes: []Action[L]{},
	}
	plan.Summary.Items = len(items)

	index := make(map[string]*Item, len(items))
	for i := range items {
		k := items[i].Key(keyField)
		if k == "" {
			plan.Summary.UnkeyedItems++
			continue
		}
		if _, seen := index[k]; seen {
			plan.Summary.DuplicateItems++
		}
		index[k] = &items[i]
	}

	last := make(map[string]int, len(listings))
	for i, l := range listings {
		k := key(l)
		if k == "" {
			plan.Summary.UnkeyedListings++
			continue
		}
		if _, seen := last[k]; seen {
			plan.Summary.DuplicateListings++
		}
		last[k] = i
	}

	for i, l := range listings {
		k := key(l)
		if k == "" || last[k] != i {
			continue
		}

		if item, ok := index[k]; ok {
			plan.Upserts = append(plan.Upserts, Action[L]{
				Type:    ActionUpdate,
				Key:     k,
				ItemID:  item.ID,
				Listing: l,
				Item:    item,
			})
			plan.Summary.Updates++
			continue
		}

		plan.Upserts = append(plan.Upserts, Action[L]{
			Type:    ActionCreate,
			Key:     k,
			Listing: l,
		})
		plan.Summary.Creates++
	}
	plan.Summary.Listings = len(last)

	for i := range items {
		k := items[i].Key(keyField)
		if _, live := last[k]; live && k != "" {
			continue
		}
		plan.Deletes = append(plan.Deletes, Action[L]{
			Type:   ActionDelete,
			Key:    k,
			ItemID: items[i].ID,
			Item:   &items[i],
		})
		plan.Summary.Deletes++
	}

	return plan
}

// ItemIDs returns the ids targeted by the given actions, skipping creates.
func ItemIDs[L any](actions []Action[L]) []string {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.ItemID != "" {
			ids = append(ids, a.ItemID)
		}
	}
	return ids
}
