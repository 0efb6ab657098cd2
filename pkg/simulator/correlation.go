package simulator

import (
	"sort"
	"time"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

// DefaultCorrelationWindow is how far apart two similar alerts may be and still be grouped
const DefaultCorrelationWindow = 5 * time.Minute

// CorrelationIDPrefix is prepended to the id of a group's earliest alert
const CorrelationIDPrefix = "corr-"

type correlationKey struct {
	alertType models.AlertType
	source    string
}

type correlationGroup struct {
	anchor  time.Time
	leader  string
	members []int
}

// CorrelateAlerts groups similar alerts. Alerts are similar when they share
// type and source and lie within window after the group's earliest alert.
// Alerts are grouped oldest first, so an alert newer than every other one
// never changes the existing groups or their ids. Members of groups of two
// or more share the correlation id of the earliest member and list each
// other in RelatedAlerts; singletons have both cleared. The input is not
// modified and the result keeps the input order.
func CorrelateAlerts(alerts []models.Alert, window time.Duration) []models.Alert {
	if window <= 0 {
		window = DefaultCorrelationWindow
	}

	out := make([]models.Alert, len(alerts))
	copy(out, alerts)

	// oldest first, ties by input order
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].Timestamp.Before(out[order[b]].Timestamp)
	})

	open := make(map[correlationKey][]*correlationGroup)
	groups := make([]*correlationGroup, 0, len(out))

	for _, i := range order {
		key := correlationKey{alertType: out[i].Type, source: out[i].Source}

		var target *correlationGroup
		for _, group := range open[key] {
			if out[i].Timestamp.Sub(group.anchor) <= window {
				target = group
				break
			}
		}
		if target == nil {
			target = &correlationGroup{anchor: out[i].Timestamp, leader: out[i].ID}
			open[key] = append(open[key], target)
			groups = append(groups, target)
		}
		target.members = append(target.members, i)
	}

	for _, group := range groups {
		if len(group.members) < 2 {
			idx := group.members[0]
			out[idx].CorrelationID = ""
			out[idx].RelatedAlerts = nil
			continue
		}

		// related ids follow the input order
		sort.Ints(group.members)
		correlationID := CorrelationIDPrefix + group.leader
		for _, idx := range group.members {
			related := make([]string, 0, len(group.members)-1)
			for _, other := range group.members {
				if other != idx {
					related = append(related, out[other].ID)
				}
			}
			out[idx].CorrelationID = correlationID
			out[idx].RelatedAlerts = related
		}
	}

	return out
}
