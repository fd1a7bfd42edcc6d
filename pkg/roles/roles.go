package roles

// Role is the permission level attached to an authenticated caller.
type Role string

const (
	Keeper  Role = "keeper"
	Manager Role = "manager"
	Admin   Role = "admin"
)

type HierarchyLevel int

const (
	UnknownLevel HierarchyLevel = 0
	KeeperLevel  HierarchyLevel = 1
	ManagerLevel HierarchyLevel = 2
	AdminLevel   HierarchyLevel = 3
)

func (r Role) GetHierarchyLevel() HierarchyLevel {
	switch r {
	case Keeper:
		return KeeperLevel
	case Manager:
		return ManagerLevel
	case Admin:
		return AdminLevel
	default:
		return UnknownLevel
	}
}

// HasPermission reports whether r sits at or above requiredRole in the hierarchy.
func (r Role) HasPermission(requiredRole Role) bool {
	if !r.IsValid() {
		return false
	}
	return r.GetHierarchyLevel() >= requiredRole.GetHierarchyLevel()
}

func (r Role) IsValid() bool {
	switch r {
	case Keeper, Manager, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
