// Simulation ties the floor state together and steps every visit each tick.
package engine

import (
	"log/slog"
	"math/rand"

	"github.com/dustin/go-humanize"

	"shopfloor/internal/commerce"
	"shopfloor/internal/config"
	"shopfloor/internal/customer"
	"shopfloor/internal/policy"
	"shopfloor/internal/queue"
	"shopfloor/internal/session"
	"shopfloor/internal/store"
)

// SimStats tracks aggregate counters, reset daily.
type SimStats struct {
	VisitorsToday  int     `json:"visitors_today"`
	SalesToday     int     `json:"sales_today"`
	RevenueToday   float64 `json:"revenue_today"`
	LevelUpsToday  int     `json:"level_ups_today"`
	PeakConcurrent int     `json:"peak_concurrent"`
}

// Simulation holds the complete store state and wires the services together.
// The tick loop is the single writer for everything in here.
type Simulation struct {
	Tuning *config.Tuning

	Resources []*store.Resource
	Ledger    *commerce.Ledger
	Queues    map[store.ResourceID]*queue.Queue

	Records map[customer.ID]*customer.Record
	Visits  map[customer.ID]*Visit
	order   []customer.ID // active visits in spawn order, for deterministic stepping

	Spawner     *customer.Spawner
	Policies    map[string]*policy.Set
	Progression *session.Progression
	Events      *Feed

	Entrance store.GridCell
	Closing  bool
	LastTick uint64
	Stats    SimStats

	rng        *rand.Rand
	spawnCarry float64
}

// NewSimulation builds a simulation from tuning and previously persisted
// customer records.
func NewSimulation(tun *config.Tuning, records []*customer.Record, seed int64) *Simulation {
	resources := make([]*store.Resource, len(tun.Resources))
	for i := range tun.Resources {
		r := tun.Resources[i]
		r.Operational = true
		resources[i] = &r
	}

	queues := make(map[store.ResourceID]*queue.Queue, len(resources))
	for _, r := range resources {
		sec := tun.ShelfServiceSec
		if r.Kind == store.KindRegister {
			sec = tun.RegisterServiceSec
		}
		queues[r.ID] = queue.New(r, sec)
	}

	recIndex := make(map[customer.ID]*customer.Record, len(records))
	nextID := customer.ID(1)
	for _, rec := range records {
		recIndex[rec.ID] = rec
		if rec.ID >= nextID {
			nextID = rec.ID + 1
		}
	}
	spawner := customer.NewSpawner(seed, tun.Archetypes, tun.Traits)
	spawner.SetNextID(nextID)

	return &Simulation{
		Tuning:      tun,
		Resources:   resources,
		Ledger:      commerce.NewLedger(resources),
		Queues:      queues,
		Records:     recIndex,
		Visits:      make(map[customer.ID]*Visit),
		Spawner:     spawner,
		Policies:    map[string]*policy.Set{"default": policy.DefaultSet("default", tun.Policies)},
		Progression: &session.Progression{SpendMultiplier: tun.SpendXP},
		Events:      NewFeed(1000),
		Entrance:    store.GridCell{X: 0, Y: 8},
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// CurrentTick returns the most recently processed tick.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// TickSecond runs every tick: spawning and one FSM step per active visit.
func (s *Simulation) TickSecond(tick uint64) {
	s.LastTick = tick
	hour := HourOfDay(tick)
	s.Closing = hour < s.Tuning.OpenHour || hour >= s.Tuning.CloseHour

	s.maybeSpawn(tick, hour)

	// Step over a copy: finished visits are removed mid-iteration.
	active := make([]customer.ID, len(s.order))
	copy(active, s.order)
	for _, id := range active {
		v, ok := s.Visits[id]
		if !ok {
			continue
		}
		s.stepVisit(v, tick)
		if v.Phase == PhaseDone {
			s.finishVisit(v, tick, v.Session.Reason)
		}
	}

	if n := len(s.Visits); n > s.Stats.PeakConcurrent {
		s.Stats.PeakConcurrent = n
	}
}

// TickHour runs every sim-hour: shelf restocking.
func (s *Simulation) TickHour(tick uint64) {
	restocked := s.RestockAll()
	slog.Debug("hourly restock", "tick", tick, "time", SimTime(tick), "shelves", restocked)
}

// RestockAll tops up every shelf by the configured amount and returns the
// number of shelves touched.
func (s *Simulation) RestockAll() int {
	restocked := 0
	for _, r := range s.Resources {
		if r.Kind != store.KindShelf {
			continue
		}
		if err := s.Ledger.Restock(r.ID, s.Tuning.RestockPerHour); err != nil {
			slog.Warn("restock failed", "resource", r.ID, "error", err)
			continue
		}
		restocked++
	}
	return restocked
}

// TickDay runs every sim-day: the daily report, then counter reset.
func (s *Simulation) TickDay(tick uint64) {
	slog.Info("daily report",
		"tick", tick,
		"time", SimTime(tick),
		"visitors", s.Stats.VisitorsToday,
		"sales", humanize.Comma(int64(s.Stats.SalesToday)),
		"revenue", humanize.CommafWithDigits(s.Stats.RevenueToday, 2),
		"level_ups", s.Stats.LevelUpsToday,
		"peak_concurrent", s.Stats.PeakConcurrent,
		"lifetime_revenue", humanize.CommafWithDigits(s.Ledger.Revenue(), 2),
		"known_customers", len(s.Records),
	)
	s.Stats = SimStats{}
}

// maybeSpawn accumulates fractional arrivals and spawns whole customers.
func (s *Simulation) maybeSpawn(tick uint64, hour int) {
	if s.Closing || len(s.Visits) >= s.Tuning.MaxConcurrentVisits {
		return
	}
	s.spawnCarry += s.Tuning.SpawnPerHour / float64(TicksPerSimHour) * s.Spawner.TrafficLevel(tick)
	for s.spawnCarry >= 1 && len(s.Visits) < s.Tuning.MaxConcurrentVisits {
		s.spawnCarry--
		s.spawnCustomer(tick, hour)
	}
}

func (s *Simulation) spawnCustomer(tick uint64, hour int) {
	arch := s.Spawner.PickArchetype(hour)
	if arch == nil {
		return
	}

	rec := s.returningRecord(arch.ID)
	if rec == nil {
		rec = s.Spawner.NewRecord(arch, hour, s.Tuning.CategoryCount())
		s.Records[rec.ID] = rec
	}

	profile, err := customer.Compose(arch, rec, s.Spawner.ResolveTraits(rec), s.Tuning.CategoryCount())
	if err != nil {
		// Composition failures are fatal for the customer: never spawn them.
		slog.Error("customer composition failed", "customer", rec.ID, "archetype", arch.ID, "error", err)
		return
	}

	set := s.Policies[arch.PolicySet]
	if set == nil {
		set = s.Policies["default"]
	}

	v := &Visit{
		Record:       rec,
		Archetype:    arch,
		Profile:      profile,
		Session:      session.New(rec.ID, profile.WalletCap, tick),
		Policies:     set,
		Phase:        PhaseArriving,
		Pos:          s.Entrance,
		TravelTicks:  2,
		PatienceLeft: profile.Patience,
		Purchased:    make(map[int]bool),
	}
	s.Visits[rec.ID] = v
	s.order = append(s.order, rec.ID)
	s.Stats.VisitorsToday++

	s.Events.Emit(Event{Tick: tick, Kind: EventSpawned, Customer: rec.ID, Detail: rec.Name})
}

// returningRecord sometimes brings back a known customer of the archetype
// instead of generating a fresh one.
func (s *Simulation) returningRecord(archetypeID string) *customer.Record {
	if s.rng.Float64() > 0.5 {
		return nil
	}
	var candidates []*customer.Record
	for id, rec := range s.Records {
		if rec.ArchetypeID != archetypeID {
			continue
		}
		if _, active := s.Visits[id]; active {
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// RemoveCustomer forcibly removes a customer from the simulation: every held
// queue slot is released and any pending payment is forfeited, never
// credited to revenue.
func (s *Simulation) RemoveCustomer(id customer.ID, tick uint64) {
	v, ok := s.Visits[id]
	if !ok {
		return
	}
	for _, q := range s.Queues {
		if q.Position(id) >= 0 {
			q.Release(id)
		}
	}
	if forfeited := s.Ledger.Forfeit(id); forfeited > 0 {
		slog.Debug("pending payment forfeited", "customer", id, "amount", forfeited)
	}
	s.finishVisit(v, tick, session.LeaveForced)
	s.Events.Emit(Event{Tick: tick, Kind: EventDestroyed, Customer: id})
}

// CloseOut force-removes every remaining customer, e.g. at end of day.
func (s *Simulation) CloseOut(tick uint64) {
	active := make([]customer.ID, len(s.order))
	copy(active, s.order)
	for _, id := range active {
		s.RemoveCustomer(id, tick)
	}
}

// finishVisit folds the session into the persistent record and drops the
// visit from the floor.
func (s *Simulation) finishVisit(v *Visit, tick uint64, reason session.LeaveReason) {
	v.Session.Reason = reason

	gained, up := s.Progression.ApplyRewards(v.Record, v.Archetype, v.Profile.XPMul, v.Session, tick)
	if up != nil {
		s.Stats.LevelUpsToday++
		s.Events.Emit(Event{
			Tick: tick, Kind: EventLevelUp, Customer: v.Record.ID,
			Qty: up.NewLevel, Amount: float64(up.TotalXP),
			Detail: v.Record.Name,
		})
		slog.Info("customer leveled up",
			"customer", v.Record.ID, "name", v.Record.Name,
			"old_level", up.OldLevel, "new_level", up.NewLevel,
			"xp_gained", up.XPGained, "total_xp", up.TotalXP)
	}

	s.Events.Emit(Event{
		Tick: tick, Kind: EventLeft, Customer: v.Record.ID,
		Amount: v.Session.Spent, Detail: string(reason),
	})
	slog.Debug("visit ended",
		"customer", v.Record.ID, "reason", reason,
		"spent", v.Session.Spent, "shelves", v.Session.ShelvesVisited(),
		"xp_gained", gained)

	delete(s.Visits, v.Record.ID)
	for i, id := range s.order {
		if id == v.Record.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// decisionContext builds the point-in-time snapshot policies decide from.
func (s *Simulation) decisionContext(v *Visit) *policy.DecisionContext {
	ever := make(map[int]bool, len(v.Record.PurchasedCategories))
	for _, c := range v.Record.PurchasedCategories {
		ever[c] = true
	}
	return &policy.DecisionContext{
		Customer:           v.Record.ID,
		Level:              v.Record.Level,
		Trust:              v.Record.Trust,
		Interest:           v.Profile.Interest,
		EmbarrassmentCap:   v.Profile.EmbarrassmentCap,
		MoveSpeed:          v.Profile.MoveSpeed,
		QueueTolerance:     v.Profile.QueueTolerance,
		Wallet:             v.Session.Wallet,
		PriceSensitivity:   v.Profile.PriceSensitivity,
		PurchasedThisVisit: v.Purchased,
		EverPurchased:      ever,
		Closing:            s.Closing,
		Rand:               s.rng,
	}
}

// snapshots returns fresh read-only views of every resource of the kind,
// with live queue lengths.
func (s *Simulation) snapshots(kind store.Kind) []store.Snapshot {
	out := make([]store.Snapshot, 0, len(s.Resources))
	for _, r := range s.Resources {
		if r.Kind != kind {
			continue
		}
		out = append(out, r.Snapshot(s.Queues[r.ID].Len()))
	}
	return out
}

func (s *Simulation) snapshotOf(id store.ResourceID) (store.Snapshot, error) {
	r, err := s.Ledger.Resource(id)
	if err != nil {
		return store.Snapshot{}, err
	}
	return r.Snapshot(s.Queues[id].Len()), nil
}

// stepVisit advances one customer's FSM by one tick.
func (s *Simulation) stepVisit(v *Visit, tick uint64) {
	switch v.Phase {
	case PhaseArriving:
		v.TravelTicks--
		if v.TravelTicks <= 0 {
			v.Phase = PhaseChoosing
		}

	case PhaseChoosing:
		if s.Closing {
			s.headToCheckout(v, tick, session.LeaveClosing)
			return
		}
		shelves := s.snapshots(store.KindShelf)
		if stocked, affordable := s.affordability(v, shelves); stocked && !affordable {
			s.headToCheckout(v, tick, session.LeaveBroke)
			return
		}
		ctx := s.decisionContext(v)
		target, ok := v.Policies.Target.SelectTarget(ctx, shelves)
		if !ok {
			// Nothing viable to shop for, head for checkout.
			s.headToCheckout(v, tick, "")
			return
		}
		res, err := s.Ledger.Resource(target)
		if err != nil {
			slog.Warn("selected resource vanished", "customer", v.Record.ID, "resource", target)
			s.headToCheckout(v, tick, "")
			return
		}
		v.Target = target
		v.TravelTicks = travelTicks(v.Pos, res.Cell, v.Profile.MoveSpeed)
		v.Phase = PhaseApproaching

	case PhaseApproaching:
		v.TravelTicks--
		if v.TravelTicks%5 == 0 && v.TravelTicks > 0 {
			snap, err := s.snapshotOf(v.Target)
			if err != nil {
				s.headToCheckout(v, tick, "")
				return
			}
			if v.Policies.Repath.ShouldRepath(s.decisionContext(v), snap) {
				v.Phase = PhaseChoosing
				return
			}
		}
		if v.TravelTicks <= 0 {
			slot := s.Queues[v.Target].Acquire(v.Record.ID)
			v.Pos = slot.Cell
			v.WaitTicks = 0
			v.Phase = PhaseQueuing
			s.Events.Emit(Event{Tick: tick, Kind: EventReached, Customer: v.Record.ID, Resource: v.Target})
		}

	case PhaseQueuing:
		s.stepQueuing(v, tick, false)

	case PhaseAtShelf:
		v.ServiceTicks--
		if v.ServiceTicks <= 0 {
			s.completeShelfStop(v, tick)
		}

	case PhaseToRegister:
		v.TravelTicks--
		if v.TravelTicks <= 0 {
			slot := s.Queues[v.Target].Acquire(v.Record.ID)
			v.Pos = slot.Cell
			v.WaitTicks = 0
			v.Phase = PhaseRegisterQueue
			s.Events.Emit(Event{Tick: tick, Kind: EventReached, Customer: v.Record.ID, Resource: v.Target})
		}

	case PhaseRegisterQueue:
		s.stepQueuing(v, tick, true)

	case PhaseAtRegister:
		v.ServiceTicks--
		if v.ServiceTicks <= 0 {
			amount, settled := s.Ledger.Settle(v.Record.ID)
			if settled {
				s.Stats.RevenueToday += amount
				s.Events.Emit(Event{Tick: tick, Kind: EventCheckedOut, Customer: v.Record.ID, Resource: v.Target, Amount: amount})
			}
			s.Queues[v.Target].Release(v.Record.ID)
			v.Session.Reason = v.leaveReason()
			v.TravelTicks = travelTicks(v.Pos, s.Entrance, v.Profile.MoveSpeed)
			v.Phase = PhaseLeaving
		}

	case PhaseLeaving:
		v.TravelTicks--
		if v.TravelTicks <= 0 {
			if v.Session.Reason == "" {
				v.Session.Reason = v.leaveReason()
			}
			v.Phase = PhaseDone
		}
	}
}

// affordability reports whether any shelf still has stock, and whether the
// wallet covers at least one unit somewhere. Without the second check a
// drained customer would wander the floor forever, sizing zero-unit
// purchases.
func (s *Simulation) affordability(v *Visit, shelves []store.Snapshot) (stocked, affordable bool) {
	for _, sh := range shelves {
		if sh.Stock <= 0 || sh.Price <= 0 {
			continue
		}
		stocked = true
		if v.Session.Wallet >= sh.Price {
			return true, true
		}
	}
	return stocked, false
}

// stepQueuing handles one tick of waiting in a shelf or register queue.
func (s *Simulation) stepQueuing(v *Visit, tick uint64, register bool) {
	q := s.Queues[v.Target]
	v.WaitTicks++
	v.PatienceLeft--

	ctx := s.decisionContext(v)
	pos := q.Position(v.Record.ID)

	// Embarrassment accrues while standing in line.
	v.Embarrassment += v.Policies.Embarrassment.EmbarrassmentDelta(ctx, true, pos)
	if v.Embarrassment < 0 {
		v.Embarrassment = 0
	}
	v.Session.ObserveEmbarrassment(v.Embarrassment)
	if !register && v.Embarrassment > v.Profile.EmbarrassmentCap {
		q.Release(v.Record.ID)
		s.headToCheckout(v, tick, session.LeaveEmbarrassed)
		return
	}

	// Front of the line: service begins.
	if pos == 0 {
		if register {
			v.Phase = PhaseAtRegister
			v.ServiceTicks = int(s.Tuning.RegisterServiceSec)
		} else {
			v.Phase = PhaseAtShelf
			v.ServiceTicks = int(s.Tuning.ShelfServiceSec)
		}
		return
	}

	// Patience exhausted: give up shopping entirely.
	if !register && v.PatienceLeft <= 0 {
		q.Release(v.Record.ID)
		s.headToCheckout(v, tick, session.LeaveImpatient)
		return
	}

	// A clearly better queue may be worth the walk.
	current, err := s.snapshotOf(v.Target)
	if err != nil {
		q.Release(v.Record.ID)
		s.headToCheckout(v, tick, "")
		return
	}
	kind := store.KindShelf
	if register {
		kind = store.KindRegister
	}
	if alt, ok := v.Policies.QueueSwitch.ShouldSwitch(ctx, current, pos, float64(v.WaitTicks), s.snapshots(kind)); ok {
		res, err := s.Ledger.Resource(alt)
		if err == nil {
			q.Release(v.Record.ID)
			v.Target = alt
			v.TravelTicks = travelTicks(v.Pos, res.Cell, v.Profile.MoveSpeed)
			if register {
				v.Phase = PhaseToRegister
			} else {
				v.Phase = PhaseApproaching
			}
			return
		}
	}

	// Past the queue tolerance, abandon this line and shop elsewhere.
	if !register && float64(v.WaitTicks) > v.Profile.QueueTolerance {
		q.Release(v.Record.ID)
		v.Phase = PhaseChoosing
	}
}

// completeShelfStop runs the purchase at the interaction point: size the
// intent, soft-reserve, then pick units one by one against live stock.
func (s *Simulation) completeShelfStop(v *Visit, tick uint64) {
	q := s.Queues[v.Target]
	defer func() {
		q.Release(v.Record.ID)
		if v.Phase == PhaseAtShelf {
			v.Phase = PhaseChoosing
		}
	}()

	snap, err := s.snapshotOf(v.Target)
	if err != nil {
		s.headToCheckout(v, tick, "")
		return
	}

	qty := v.Policies.Sizer.PurchaseQty(s.decisionContext(v), snap)
	stay := uint64(s.Tuning.ShelfServiceSec)
	if qty <= 0 {
		v.Session.RecordShelfVisit(session.ShelfVisit{
			Resource: v.Target, Category: snap.Category,
			WaitTicks: v.WaitTicks, StayTicks: stay,
		})
		return
	}

	ticket, err := s.Ledger.SoftReserve(v.Target, qty)
	if err != nil {
		s.headToCheckout(v, tick, "")
		return
	}

	bought := 0
	spent := 0.0
	for i := 0; i < ticket.Qty; i++ {
		price, err := s.Ledger.TakeOne(v.Target, v.Record.ID, v.Session.Wallet)
		if err != nil {
			// Out of stock or out of money mid-pickup; keep what we have.
			break
		}
		v.Session.Debit(price)
		bought++
		spent += price
	}

	v.Session.RecordShelfVisit(session.ShelfVisit{
		Resource: v.Target, Category: snap.Category,
		WaitTicks: v.WaitTicks, StayTicks: stay,
		Reserved: ticket.Qty, Bought: bought, Spent: spent,
	})

	if bought > 0 {
		v.Purchased[snap.Category] = true
		s.Stats.SalesToday += bought
		s.Events.Emit(Event{
			Tick: tick, Kind: EventPurchased, Customer: v.Record.ID,
			Resource: v.Target, Qty: bought, Amount: spent,
		})
	}
}

// headToCheckout routes the customer to a register, or straight out when
// there is nothing to settle and no register to be found.
func (s *Simulation) headToCheckout(v *Visit, tick uint64, reason session.LeaveReason) {
	if reason != "" && v.pendingReason == "" {
		v.pendingReason = reason
	}

	ctx := s.decisionContext(v)
	target, ok := v.Policies.Cashier.ChooseCashier(ctx, s.snapshots(store.KindRegister), v.Pos)
	if !ok {
		// No register on the floor: forfeit anything pending and walk out.
		s.Ledger.Forfeit(v.Record.ID)
		v.Session.Reason = v.leaveReason()
		v.TravelTicks = travelTicks(v.Pos, s.Entrance, v.Profile.MoveSpeed)
		v.Phase = PhaseLeaving
		return
	}
	res, err := s.Ledger.Resource(target)
	if err != nil {
		s.Ledger.Forfeit(v.Record.ID)
		v.Session.Reason = v.leaveReason()
		v.TravelTicks = travelTicks(v.Pos, s.Entrance, v.Profile.MoveSpeed)
		v.Phase = PhaseLeaving
		return
	}
	v.Target = target
	v.TravelTicks = travelTicks(v.Pos, res.Cell, v.Profile.MoveSpeed)
	v.Phase = PhaseToRegister
}
