package central

import "github.com/openstack/designate-sub004/internal/storage"

// statusRank orders statuses by severity for aggregation. A recordset
// surfaces the worst status among its records.
var statusRank = map[storage.Status]int{
	storage.StatusError:   4,
	storage.StatusPending: 3,
	storage.StatusActive:  2,
	storage.StatusDeleted: 1,
}

// actionRank orders actions for aggregation. CREATE dominates because a
// recordset with any record still being created is itself being created.
var actionRank = map[storage.Action]int{
	storage.ActionCreate: 4,
	storage.ActionUpdate: 3,
	storage.ActionDelete: 2,
	storage.ActionNone:   1,
}

// AggregateStatus derives a recordset's status from its records: the
// worst status wins, and no records at all (or only deleted ones)
// reads DELETED.
func AggregateStatus(records []storage.Record) storage.Status {
	out := storage.StatusDeleted
	for _, r := range records {
		if statusRank[r.Status] > statusRank[out] {
			out = r.Status
		}
	}
	return out
}

// AggregateAction derives a recordset's outstanding action from its
// records by precedence.
func AggregateAction(records []storage.Record) storage.Action {
	out := storage.ActionNone
	for _, r := range records {
		if actionRank[r.Action] > actionRank[out] {
			out = r.Action
		}
	}
	return out
}
