// sim/turnover.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// startTurnover forks the room-restoration process. The caller keeps walking
// the patient out; the magnet unit and its access slot stay claimed until
// the room is clean, so the pool can never hand out a dirty magnet.
func (f *Facility) startTurnover(protocol string, m *Magnet, access *Ticket, vacated *Signal) {
	name := fmt.Sprintf("turnover %s", m.ID)
	f.k.Spawn(name, func(p *Proc) {
		f.turnover(p, protocol, m, access, vacated)
	})
}

// turnover restores a magnet room after a scan. Same protocol as the
// previous case means a quick changeover: the scan tech helps and only the
// table needs flipping. A protocol change needs the room cleaned and the
// coil configuration swapped, and those two jobs overlap, so the slower of
// the two samples governs.
func (f *Facility) turnover(p *Proc, protocol string, m *Magnet, access *Ticket, vacated *Signal) {
	vacated.Wait(p)
	m.Status = MagnetDirty
	start := p.Now()

	porter := f.porter.Acquire(p, TierCritical)
	if m.LastProtocol == protocol {
		tech := f.scanTechs.Acquire(p, TierRoutine)
		p.Delay(f.sample(f.samplers.turnoverFast))
		tech.Release()
	} else {
		clean := f.sample(f.samplers.turnoverSlow)
		reconfig := f.sample(f.samplers.reconfig)
		if reconfig > clean {
			clean = reconfig
		}
		p.Delay(clean)
	}
	porter.Release()

	m.LastProtocol = protocol
	m.Status = MagnetClean
	f.collector.Occupancy(p.Now(), m.ID, OccTurnover, p.Now()-start)
	logrus.Debugf("[tick %07d] magnet %s clean, configured for %s", p.Now(), m.ID, protocol)

	f.magnets.Release(m)
	access.Release()
}
