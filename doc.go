// Package pagereplace implements the residency decisions of three
// virtual-memory page-replacement policies, driven one access at a time.
//
// Every policy implements [Policy]: [Policy.AccessPage] reports, as an [Event],
// whether the referenced unit was resident and what was evicted, demoted,
// promoted, or spared to serve it. Policies never perform output;
// narration is left to the caller.
//
// The following is a summary of the policies (intended for maintainers).
//
// Glossary and invariants:
//
//   - Unit is the metadata of one resident page, owned by a [PageStore].
//
//     Lists hold identifiers only and are looked up through the store.
//
//   - Fault: access to a non-resident unit.
//
//   - Soft fault: access to a resident unit outside the hot population.
//
//   - Hard fault: access to a unit that is not resident at all.
//
//   - Second chance: a referenced unit has its bit cleared
//     and is kept (or relocated) instead of being evicted.
//
//   - Scan budget: upper bound on inactive entries inspected per reclaim pass.
//
//   - A stored unit is in exactly one list, matching its [Residency].
//
//   - Resident units never exceed capacity after an access completes.
//
// Policies:
//
//   - [TwoList] (Linux style)
//
//     New units enter the head of the inactive list unreferenced.
//     The first reference sets the bit, the second promotes the unit to the
//     head of the active list. Faults on a full list reclaim from the inactive
//     tail within a scan budget of max(inactive/6, 2n), sparing referenced units
//     by moving them to the active list. After each fault the inactive list is
//     refilled from the active tail to a third of all units; referenced tails are
//     rotated instead of moved.
//
//   - [Aging] (macOS style)
//
//     Units are loaded into the active list and demoted once older than the
//     active threshold. Free frames are counted; below the low-water mark a
//     page-out daemon frees inactive units older than the inactive threshold,
//     oldest first, until the high-water mark. A hard fault with no free frame
//     forces out the oldest inactive unit regardless of age.
//
//   - [WorkingSet] (Windows style)
//
//     A single bounded set. Reference bits are reset every clear interval.
//     After each access, aged units are trimmed unless referenced. A fault on a
//     full set evicts every aged unreferenced unit, or else the least recently
//     accessed unit (lowest identifier on ties).
//
// Time:
//
// Ages are measured with a [Clock]. Policies default to a [LogicalClock],
// which only moves when advanced, so behavior is reproducible.
package pagereplace
