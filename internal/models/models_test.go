package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole(RoleAdmin))
	require.True(t, ValidRole(RoleManager))
	require.True(t, ValidRole(RoleUser))
	require.False(t, ValidRole("owner"))
	require.False(t, ValidRole(""))
}

func TestValidPlan(t *testing.T) {
	require.True(t, ValidPlan(PlanFree))
	require.True(t, ValidPlan(PlanPro))
	require.False(t, ValidPlan("enterprise"))
}

func TestInvitePending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)

	invite := UserInvite{ExpiresAt: now.Add(time.Hour)}
	require.True(t, invite.Pending(now))

	expired := UserInvite{ExpiresAt: now.Add(-time.Minute)}
	require.False(t, expired.Pending(now))

	used := UserInvite{ExpiresAt: now.Add(time.Hour), AcceptedAt: &accepted}
	require.False(t, used.Pending(now))
}

func TestUserIsActive(t *testing.T) {
	require.True(t, (&User{Status: UserStatusActive}).IsActive())
	require.False(t, (&User{Status: UserStatusInactive}).IsActive())
}
