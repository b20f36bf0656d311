package sim

// StaffRole identifies which duty a staff member covers and which break
// choreography applies to them.
type StaffRole string

const (
	RolePorter StaffRole = "porter"
	RoleAdmin  StaffRole = "admin"
	RoleBackup StaffRole = "backup"
	RoleScan   StaffRole = "scan"
)

// Staff is a named staff member. Resource seats model availability; the
// struct itself carries break and coverage state for snapshots.
type Staff struct {
	Name string
	Role StaffRole
	// Index staggers break starts among same-role staff.
	Index int

	OnBreak bool
	// Covering names the role currently being covered for, empty when
	// working the home station.
	Covering StaffRole

	Body Body
}

func newStaff(name string, role StaffRole, idx int, body Body) *Staff {
	return &Staff{Name: name, Role: role, Index: idx, Body: body}
}
