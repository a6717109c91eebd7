package services_test

import (
	"context"
	"testing"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type AccessPolicyTestSuite struct {
	suite.Suite
	policy *services.AccessPolicy

	user  *models.User
	other *models.User
	admin *models.User
}

func (suite *AccessPolicyTestSuite) SetupTest() {
	suite.policy = services.NewAccessPolicy(zerolog.Nop())
	suite.user = &models.User{ID: uuid.Must(uuid.NewV4()), Role: models.RoleUser, Active: true}
	suite.other = &models.User{ID: uuid.Must(uuid.NewV4()), Role: models.RoleUser, Active: true}
	suite.admin = &models.User{ID: uuid.Must(uuid.NewV4()), Role: models.RoleAdmin, Active: true}
}

func (suite *AccessPolicyTestSuite) authorize(actor *models.User, action services.Action, target *models.User) error {
	req := services.AuthorizationRequest{Actor: actor, Action: action}
	if target != nil {
		req.TargetID = &target.ID
	}
	return suite.policy.Authorize(context.Background(), req)
}

func (suite *AccessPolicyTestSuite) TestUserCanUpdateSelf() {
	suite.NoError(suite.authorize(suite.user, services.ActionUpdateUser, suite.user))
}

func (suite *AccessPolicyTestSuite) TestUserCannotUpdateOthers() {
	err := suite.authorize(suite.user, services.ActionUpdateUser, suite.other)
	suite.Equal(apperr.KindForbidden, apperr.KindOf(err))
}

func (suite *AccessPolicyTestSuite) TestAdminOverride() {
	suite.NoError(suite.authorize(suite.admin, services.ActionUpdateUser, suite.other))
	suite.NoError(suite.authorize(suite.admin, services.ActionChangeUserPrivileges, suite.other))
	suite.NoError(suite.authorize(suite.admin, services.ActionDeleteUser, suite.other))
}

func (suite *AccessPolicyTestSuite) TestUserCannotChangeOwnPrivileges() {
	err := suite.authorize(suite.user, services.ActionChangeUserPrivileges, suite.user)
	suite.Equal(apperr.KindForbidden, apperr.KindOf(err))
}

func (suite *AccessPolicyTestSuite) TestUserCannotDelete() {
	err := suite.authorize(suite.user, services.ActionDeleteUser, suite.user)
	suite.True(apperr.Is(err, apperr.KindForbidden))
	suite.Equal("FORBIDDEN", apperr.Code(err))
}

func (suite *AccessPolicyTestSuite) TestAnyoneReadsProfilesAndManagesTasks() {
	suite.NoError(suite.authorize(suite.user, services.ActionReadUser, suite.other))
	suite.NoError(suite.authorize(suite.user, services.ActionManageTasks, nil))
	suite.NoError(suite.authorize(suite.user, services.ActionViewAnalytics, nil))
}

func (suite *AccessPolicyTestSuite) TestMissingActorDenied() {
	decision := suite.policy.Evaluate(services.AuthorizationRequest{Action: services.ActionReadUser})
	suite.False(decision.Allowed)
	suite.Equal("no authenticated user", decision.Reason)
}

func (suite *AccessPolicyTestSuite) TestUnknownActionDenied() {
	decision := suite.policy.Evaluate(services.AuthorizationRequest{Actor: suite.admin, Action: "launch"})
	suite.False(decision.Allowed)
}

func (suite *AccessPolicyTestSuite) TestDecisionCarriesContext() {
	decision := suite.policy.Evaluate(services.AuthorizationRequest{
		Actor:    suite.user,
		Action:   services.ActionUpdateUser,
		TargetID: &suite.other.ID,
	})
	suite.Equal(suite.user.ID, decision.ActorID)
	suite.Equal(&suite.other.ID, decision.TargetID)
	suite.False(decision.Timestamp.IsZero())
}

func (suite *AccessPolicyTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := suite.policy.Authorize(ctx, services.AuthorizationRequest{Actor: suite.admin, Action: services.ActionReadUser})
	suite.Equal(apperr.KindUnexpected, apperr.KindOf(err))
}

func TestAccessPolicyTestSuite(t *testing.T) {
	suite.Run(t, new(AccessPolicyTestSuite))
}

func BenchmarkAuthorizationCheck(b *testing.B) {
	policy := services.NewAccessPolicy(zerolog.Nop())
	actor := &models.User{ID: uuid.Must(uuid.NewV4()), Role: models.RoleUser}
	req := services.AuthorizationRequest{Actor: actor, Action: services.ActionUpdateUser, TargetID: &actor.ID}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = policy.Evaluate(req)
	}
}
