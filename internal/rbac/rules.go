package rbac

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

const (
	PermExerciseCreate = "exercise:create"
	PermExerciseView   = "exercise:view"
	PermExerciseUpdate = "exercise:update"
	PermExerciseDelete = "exercise:delete"

	PermAssignmentCreate  = "assignment:create"
	PermAssignmentViewAll = "assignment:view-all"
	PermAssignmentViewOwn = "assignment:view-own"
	PermAssignmentSubmit  = "assignment:submit"

	PermScoringView = "scoring:view"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleLearner: {
		PermAssignmentViewOwn,
		PermAssignmentSubmit,
	},
	RoleAdmin: {
		"*", // everything
	},
}
