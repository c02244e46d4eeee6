package formsdk

// UI routes the navigation policy targets.
const (
	RouteDashboard = "/dashboard"
	RouteAdminList = "/dashboard/admins"
	RouteUserList  = "/dashboard/admins/users"
	RouteLogin     = "/login"
)

// Navigation is the display decision for one completed submission.
// Zero value means stay on the current view and render the result
// inline.
type Navigation struct {
	// Route to navigate to; empty means no navigation.
	Route string
	// SignOut indicates the local session must be discarded first.
	SignOut bool
	// Transient is a message key to flash without navigating.
	Transient string
}

// Decide maps an operation's result to a navigation decision.
// affectedRole is the role of the record the submission touched; it
// picks the list view after an admin save. Field errors and warnings
// always stay inline.
func Decide(op Operation, res ActionResult, affectedRole string) Navigation {
	if !res.OK() {
		return Navigation{}
	}

	switch op {
	case OpUpdateProfile:
		return Navigation{Transient: res.Message}
	case OpSaveAccount:
		if affectedRole == RoleUser {
			return Navigation{Route: RouteUserList}
		}
		return Navigation{Route: RouteAdminList}
	case OpCreateAdmin, OpSignIn:
		return Navigation{Route: RouteDashboard}
	case OpUpdatePassword, OpDeleteSelf:
		return Navigation{SignOut: true, Route: RouteLogin}
	case OpSignOut:
		return Navigation{SignOut: true, Route: RouteLogin}
	case OpResetPassword, OpVerifyEmail:
		return Navigation{Route: RouteLogin}
	case OpDeleteUser:
		return Navigation{Transient: res.Message}
	default:
		return Navigation{}
	}
}
