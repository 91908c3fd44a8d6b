package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/hyperengineering/loginsync/internal/logins"
)

// Reconcile is the pure function from a batch of SyncLoginData plus the
// batch server timestamp to an UpdatePlan (spec.md C5). dupes is consulted
// only for inbound records with neither a mirror nor a local counterpart.
func Reconcile(records []SyncLoginData, serverNow logins.ServerTimestamp, dupes DupeFinder) (UpdatePlan, error) {
	var plan UpdatePlan

	for _, record := range records {
		if record.Inbound.Deleted {
			slog.Debug("reconcile: inbound deletion always wins", "guid", record.GUID)
			plan.planDelete(record.GUID)
			continue
		}

		upstream := record.Inbound.Login
		upstreamTime := record.InboundTime

		switch {
		case record.Mirror != nil && record.Local != nil:
			slog.Debug("reconcile: conflict between remote and local, three-way merge", "guid", record.GUID)
			merged := threeWayMerge(*record.Local, *record.Mirror, upstream, upstreamTime)
			if merged.EqualForMerge(upstream) {
				plan.planMirrorUpdate(upstream, upstreamTime)
			} else {
				plan.planLocalUpdate(merged, upstream, upstreamTime)
			}

		case record.Mirror != nil && record.Local == nil:
			slog.Debug("reconcile: forwarding mirror to remote", "guid", record.GUID)
			plan.planMirrorUpdate(upstream, upstreamTime)

		case record.Mirror == nil && record.Local != nil:
			slog.Debug("reconcile: no shared parent, two-way merge", "guid", record.GUID)
			merged := twoWayMerge(record.Local.Login, record.Local.LocalModified, upstream, upstreamTime)
			plan.planTwoWayMerge(record.Local.Login.ID, merged, upstreamTime)

		default: // no mirror, no local
			dupe, err := dupes.FindDupe(upstream)
			if err != nil {
				return UpdatePlan{}, fmt.Errorf("find dupe for %s: %w", record.GUID, err)
			}
			if dupe != nil {
				slog.Debug("reconcile: incoming record is a dupe of a local record", "guid", record.GUID, "dupe_guid", dupe.Login.ID)
				merged := twoWayMerge(dupe.Login, dupe.LocalModified, upstream, upstreamTime)
				plan.planTwoWayMerge(dupe.Login.ID, merged, upstreamTime)
			} else {
				slog.Debug("reconcile: no dupe found, inserting into mirror", "guid", record.GUID)
				plan.planMirrorInsert(upstream, upstreamTime, false)
			}
		}
	}

	return plan, nil
}
