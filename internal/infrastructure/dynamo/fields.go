package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldDeletedAt        = "deleted_at"
	fieldUpdatedAt        = "updated_at"
	fieldRead             = "read"
	fieldUsed             = "used"
	fieldUsedAt           = "used_at"
	fieldStatus           = "status"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldTwoFactorPending = "two_factor_pending"
	fieldTeamMembers      = "team_members"
)
