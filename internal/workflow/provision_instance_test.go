package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/compute/internal/activity"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

type ProvisionInstanceWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *ProvisionInstanceWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *ProvisionInstanceWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func testInstance(billingMode string) model.Instance {
	return model.Instance{
		ID:           "inst-1",
		TenantID:     "tenant-1",
		Node:         "node1",
		TemplateVMID: 100,
		Type:         model.InstanceTypeVM,
		Name:         "web-1",
		Cores:        2,
		MemoryMB:     2048,
		DiskGB:       50,
		BillingMode:  billingMode,
		Status:       model.StatusPending,
	}
}

func (s *ProvisionInstanceWorkflowTestSuite) TestSuccess_PAYG() {
	instance := testInstance(model.BillingModePAYG)

	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, activity.UpdateInstanceStatusParams{
		ID: "inst-1", Status: model.StatusProvisioning,
	}).Return(nil)
	s.env.OnActivity("GetInstanceByID", mock.Anything, "inst-1").Return(&instance, nil)
	s.env.OnActivity("GetNextVMID", mock.Anything).Return(200, nil)
	s.env.OnActivity("CloneInstance", mock.Anything, activity.CloneInstanceParams{
		Node: "node1", TemplateVMID: 100, NewVMID: 200, Type: model.InstanceTypeVM, Name: "web-1",
	}).Return("UPID:node1:clone:0001", nil)
	s.env.OnActivity("ConfigureInstance", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("MarkInstanceProvisioned", mock.Anything, activity.MarkInstanceProvisionedParams{
		ID: "inst-1", VMID: 200, CloneTask: "UPID:node1:clone:0001", ConfigWarning: false,
	}).Return(nil)
	s.env.OnActivity("StartUsageTracking", mock.Anything, mock.Anything).
		Return(&model.UsageRecord{ID: "rec-1", BillingMode: model.BillingModePAYG, HourlyRate: 0.04}, nil)

	s.env.ExecuteWorkflow(ProvisionInstanceWorkflow, core.ProvisionInstanceParams{InstanceID: "inst-1"})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProvisionInstanceWorkflowTestSuite) TestCloneFails_IsFatal() {
	instance := testInstance(model.BillingModePAYG)

	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, activity.UpdateInstanceStatusParams{
		ID: "inst-1", Status: model.StatusProvisioning,
	}).Return(nil)
	s.env.OnActivity("GetInstanceByID", mock.Anything, "inst-1").Return(&instance, nil)
	s.env.OnActivity("GetNextVMID", mock.Anything).Return(200, nil)
	s.env.OnActivity("CloneInstance", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("template locked"))
	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, activity.UpdateInstanceStatusParams{
		ID: "inst-1", Status: model.StatusFailed,
	}).Return(nil)

	s.env.ExecuteWorkflow(ProvisionInstanceWorkflow, core.ProvisionInstanceParams{InstanceID: "inst-1"})
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	// Nothing was billed for a failed clone.
	s.env.AssertNotCalled(s.T(), "StartUsageTracking", mock.Anything, mock.Anything)
}

func (s *ProvisionInstanceWorkflowTestSuite) TestConfigExhaustion_ActivatesWithWarning() {
	instance := testInstance(model.BillingModePAYG)

	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, activity.UpdateInstanceStatusParams{
		ID: "inst-1", Status: model.StatusProvisioning,
	}).Return(nil)
	s.env.OnActivity("GetInstanceByID", mock.Anything, "inst-1").Return(&instance, nil)
	s.env.OnActivity("GetNextVMID", mock.Anything).Return(200, nil)
	s.env.OnActivity("CloneInstance", mock.Anything, mock.Anything).
		Return("UPID:node1:clone:0002", nil)
	s.env.OnActivity("ConfigureInstance", mock.Anything, mock.Anything).
		Return(fmt.Errorf("clone not settled"))
	s.env.OnActivity("MarkInstanceProvisioned", mock.Anything,
		mock.MatchedBy(func(params activity.MarkInstanceProvisionedParams) bool {
			return params.ID == "inst-1" && params.ConfigWarning
		})).Return(nil)
	s.env.OnActivity("StartUsageTracking", mock.Anything, mock.Anything).
		Return(&model.UsageRecord{ID: "rec-1", BillingMode: model.BillingModePAYG}, nil)

	s.env.ExecuteWorkflow(ProvisionInstanceWorkflow, core.ProvisionInstanceParams{InstanceID: "inst-1"})
	s.True(s.env.IsWorkflowCompleted())
	// Exhausted configuration retries do not fail the workflow.
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProvisionInstanceWorkflowTestSuite) TestReserved_DebitsMonthlyUpfront() {
	instance := testInstance(model.BillingModeReserved)
	monthly := 21.0

	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("GetInstanceByID", mock.Anything, "inst-1").Return(&instance, nil)
	s.env.OnActivity("GetNextVMID", mock.Anything).Return(201, nil)
	s.env.OnActivity("CloneInstance", mock.Anything, mock.Anything).
		Return("UPID:node1:clone:0003", nil)
	s.env.OnActivity("ConfigureInstance", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("MarkInstanceProvisioned", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("StartUsageTracking", mock.Anything, mock.Anything).
		Return(&model.UsageRecord{ID: "rec-1", BillingMode: model.BillingModeReserved, MonthlyRate: &monthly}, nil)
	s.env.OnActivity("DebitUpfront", mock.Anything,
		mock.MatchedBy(func(params activity.DebitUpfrontParams) bool {
			return params.TenantID == "tenant-1" && params.Amount == 21.0
		})).Return(nil)

	s.env.ExecuteWorkflow(ProvisionInstanceWorkflow, core.ProvisionInstanceParams{InstanceID: "inst-1"})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProvisionInstanceWorkflowTestSuite) TestReserved_DebitFailureFlagsRecord() {
	instance := testInstance(model.BillingModeReserved)
	monthly := 21.0

	s.env.OnActivity("UpdateInstanceStatus", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("GetInstanceByID", mock.Anything, "inst-1").Return(&instance, nil)
	s.env.OnActivity("GetNextVMID", mock.Anything).Return(202, nil)
	s.env.OnActivity("CloneInstance", mock.Anything, mock.Anything).
		Return("UPID:node1:clone:0004", nil)
	s.env.OnActivity("ConfigureInstance", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("MarkInstanceProvisioned", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("StartUsageTracking", mock.Anything, mock.Anything).
		Return(&model.UsageRecord{ID: "rec-1", BillingMode: model.BillingModeReserved, MonthlyRate: &monthly}, nil)
	s.env.OnActivity("DebitUpfront", mock.Anything, mock.Anything).
		Return(fmt.Errorf("insufficient credits"))
	s.env.OnActivity("FlagUsageRecord", mock.Anything, "rec-1").Return(nil)

	s.env.ExecuteWorkflow(ProvisionInstanceWorkflow, core.ProvisionInstanceParams{InstanceID: "inst-1"})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func TestProvisionInstanceWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(ProvisionInstanceWorkflowTestSuite))
}

func TestConfigRetryDelay(t *testing.T) {
	expected := []time.Duration{
		3 * time.Second, 5 * time.Second, 8 * time.Second, 12 * time.Second, 15 * time.Second,
	}
	for i, want := range expected {
		if got := configRetryDelay(i + 1); got != want {
			t.Fatalf("attempt %d: got %v, want %v", i+1, got, want)
		}
	}
	// Out-of-range attempts clamp to the schedule bounds.
	if got := configRetryDelay(0); got != 3*time.Second {
		t.Fatalf("attempt 0: got %v", got)
	}
	if got := configRetryDelay(99); got != 15*time.Second {
		t.Fatalf("attempt 99: got %v", got)
	}
}
