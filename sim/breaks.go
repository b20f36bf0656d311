// sim/breaks.go
package sim

import "fmt"

// Coordinator runs the staff break choreography. A single break slot keeps
// breaks strictly sequential across the whole roster, and each role hands
// its station off before leaving so no station is ever uncovered.
type Coordinator struct {
	f         *Facility
	breakSlot *Resource

	deskCoveredByPorter bool
	porterOnBreak       bool
}

// DeskCoveredByPorter reports whether the porter is currently manning the
// registration desk.
func (c *Coordinator) DeskCoveredByPorter() bool { return c.deskCoveredByPorter }

// PorterOnBreak reports whether the porter is off the floor.
func (c *Coordinator) PorterOnBreak() bool { return c.porterOnBreak }

func newCoordinator(f *Facility) *Coordinator {
	return &Coordinator{f: f, breakSlot: mustResource(f.k, "break slot", 1)}
}

// start spawns one break cycle per staff member.
func (c *Coordinator) start() {
	for _, st := range c.f.staff {
		st := st
		c.f.k.Spawn(fmt.Sprintf("breaks %s", st.Name), func(p *Proc) {
			c.breakCycle(p, st)
		})
	}
}

// breakCycle walks one staff member through the configured break blocks.
// Breaks never run into overtime: a block that has not started by shift end
// is skipped.
func (c *Coordinator) breakCycle(p *Proc, st *Staff) {
	plan := c.f.cfg.Breaks
	offset := plan.InitialOffsetMinutes[st.Role] + float64(st.Index)*plan.StaggerMinutes
	p.Delay(MinutesToTicks(offset))

	for _, block := range plan.BlocksMinutes {
		if p.Now() >= c.f.shiftTicks {
			return
		}
		slot := c.breakSlot.Acquire(p, TierRoutine)
		// A block that cannot finish inside the shift, handoffs included,
		// is forfeited.
		overhead := MinutesToTicks(plan.CoverageTravelMinutes + 2*plan.HandoffMinutes)
		if p.Now()+MinutesToTicks(block)+overhead > c.f.shiftTicks {
			slot.Release()
			return
		}
		c.takeBreak(p, st, MinutesToTicks(block))
		slot.Release()
		p.Delay(MinutesToTicks(plan.InterBreakMinutes))
	}
}

func (c *Coordinator) takeBreak(p *Proc, st *Staff, block int64) {
	switch st.Role {
	case RoleScan:
		c.scanBreak(p, st, block)
	case RoleAdmin:
		c.adminBreak(p, st, block)
	case RolePorter:
		c.porterBreak(p, st, block)
	case RoleBackup:
		c.backupBreak(p, st, block)
	}
}

func (c *Coordinator) rest(p *Proc, st *Staff, block int64, home Point) {
	st.OnBreak = true
	st.Body.MoveTo(locBreakRoom, p.Now())
	p.Delay(block)
	st.Body.MoveTo(home, p.Now())
	st.OnBreak = false
}

// scanBreak hands the console to a backup tech. The outgoing tech does not
// leave until the cover is physically at the console and the two have
// overlapped for the handoff window, so the station never sits idle.
func (c *Coordinator) scanBreak(p *Proc, st *Staff, block int64) {
	plan := c.f.cfg.Breaks
	inPosition := NewSignal(c.f.k, fmt.Sprintf("cover at console for %s", st.Name))
	var cover *Ticket
	c.f.k.Spawn(fmt.Sprintf("cover %s", st.Name), func(cp *Proc) {
		cover = c.f.backupTechs.Acquire(cp, TierRoutine)
		cp.Delay(MinutesToTicks(plan.CoverageTravelMinutes))
		inPosition.Fire()
	})
	inPosition.Wait(p)
	p.Delay(MinutesToTicks(plan.HandoffMinutes))

	covering := c.markCoveringBackup(RoleScan)
	c.rest(p, st, block, locMagnetBay)

	p.Delay(MinutesToTicks(plan.HandoffMinutes))
	if covering != nil {
		covering.Covering = ""
	}
	cover.Release()
}

// adminBreak borrows the porter to man the desk. The porter request runs at
// the critical tier so it jumps ahead of routine escort work.
func (c *Coordinator) adminBreak(p *Proc, st *Staff, block int64) {
	plan := c.f.cfg.Breaks
	porter := c.f.porter.Acquire(p, TierCritical)
	p.Delay(MinutesToTicks(plan.CoverageTravelMinutes + plan.HandoffMinutes))

	covering := c.markCoveringPorter()
	c.deskCoveredByPorter = true
	c.rest(p, st, block, locDesk)

	p.Delay(MinutesToTicks(plan.HandoffMinutes))
	c.deskCoveredByPorter = false
	if covering != nil {
		covering.Covering = ""
	}
	porter.Release()
}

// porterBreak takes the porter's own seat so transport requests queue until
// the break ends. Nothing covers the porter: escorts fall back to desk staff
// or backup techs while the seat is held.
func (c *Coordinator) porterBreak(p *Proc, st *Staff, block int64) {
	seat := c.f.porter.Acquire(p, TierCritical)
	c.porterOnBreak = true
	c.rest(p, st, block, locDesk)
	c.porterOnBreak = false
	seat.Release()
}

func (c *Coordinator) backupBreak(p *Proc, st *Staff, block int64) {
	seat := c.f.backupTechs.Acquire(p, TierRoutine)
	c.rest(p, st, block, locPrep)
	seat.Release()
}

// markCoveringBackup tags the first available backup tech as covering, for
// snapshots. The resource seat is what actually enforces availability.
func (c *Coordinator) markCoveringBackup(role StaffRole) *Staff {
	for _, st := range c.f.staff {
		if st.Role == RoleBackup && !st.OnBreak && st.Covering == "" {
			st.Covering = role
			return st
		}
	}
	return nil
}

func (c *Coordinator) markCoveringPorter() *Staff {
	for _, st := range c.f.staff {
		if st.Role == RolePorter && !st.OnBreak && st.Covering == "" {
			st.Covering = RoleAdmin
			return st
		}
	}
	return nil
}
