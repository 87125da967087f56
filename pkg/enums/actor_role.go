package enums

// ActorRole identifies the kind of authenticated principal on a request.
type ActorRole string

const (
	ActorRoleWorker     ActorRole = "WORKER"
	ActorRoleProvider   ActorRole = "PROVIDER"
	ActorRoleAdmin      ActorRole = "ADMIN"
	ActorRoleSuperAdmin ActorRole = "SUPER_ADMIN"
)

// IsValid reports whether the value matches a known role.
func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleWorker, ActorRoleProvider, ActorRoleAdmin, ActorRoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role grants access to the admin surface.
func (r ActorRole) IsAdmin() bool {
	return r == ActorRoleAdmin || r == ActorRoleSuperAdmin
}
