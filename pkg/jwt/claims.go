package jwt

import "github.com/golang-jwt/jwt/v5"

// TabClaims identifies an actor and the tournament they may act on.
type TabClaims struct {
	jwt.RegisteredClaims
	Tournament string `json:"tournament"`
	Role       string `json:"role"`
}

type Role string

const (
	RoleViewer      Role = "viewer"
	RoleTabDirector Role = "tab_director"
	RoleSuperuser   Role = "superuser"
)

// Permission is an action on a tournament.
type Permission string

const (
	PermViewStandings      Permission = "view_standings"
	PermViewDraw           Permission = "view_draw"
	PermManageParticipants Permission = "manage_participants"
	PermGenerateDraw       Permission = "generate_draw"
	PermManageRooms        Permission = "manage_rooms"
	PermManageBallots      Permission = "manage_ballots"
	PermReleaseResults     Permission = "release_results"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer: {PermViewStandings, PermViewDraw},
	RoleTabDirector: {
		PermViewStandings, PermViewDraw, PermManageParticipants,
		PermGenerateDraw, PermManageRooms, PermManageBallots,
	},
}

// Can reports whether role r grants p. Superusers hold every permission.
func (r Role) Can(p Permission) bool {
	if r == RoleSuperuser {
		return true
	}
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
