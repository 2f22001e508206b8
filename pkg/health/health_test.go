package health

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerAggregation(t *testing.T) {
	checker := NewChecker()

	// No checks yet means healthy
	assert.Equal(t, StatusHealthy, checker.GetOverallStatus())

	checker.RunCheck("registry", func() error { return nil })
	assert.Equal(t, StatusHealthy, checker.GetOverallStatus())

	// One failing check among passing ones degrades the service
	checker.RunCheck("cassandra-ping", func() error { return errors.New("no hosts available") })
	assert.Equal(t, StatusDegraded, checker.GetOverallStatus())

	// All failing means unhealthy
	checker.RunCheck("registry", func() error { return errors.New("stopped") })
	assert.Equal(t, StatusUnhealthy, checker.GetOverallStatus())

	checks := checker.GetAllChecks()
	assert.Len(t, checks, 2)
	for _, check := range checks {
		assert.Equal(t, StatusUnhealthy, check.Status)
		assert.False(t, check.LastChecked.IsZero())
	}
}

func TestCheckerRemove(t *testing.T) {
	checker := NewChecker()

	checker.RunCheck("keep", func() error { return nil })
	checker.RunCheck("drop", func() error { return errors.New("gone") })
	assert.Equal(t, StatusDegraded, checker.GetOverallStatus())

	checker.Remove("drop")
	assert.Equal(t, StatusHealthy, checker.GetOverallStatus())
	assert.Len(t, checker.GetAllChecks(), 1)

	// Removing an unknown name is a no-op.
	checker.Remove("never-registered")
	assert.Len(t, checker.GetAllChecks(), 1)
}

func TestCheckerRecovery(t *testing.T) {
	checker := NewChecker()

	checker.RunCheck("ping", func() error { return errors.New("down") })
	before := checker.GetLastHealthyTime()

	checker.RunCheck("ping", func() error { return nil })
	assert.Equal(t, StatusHealthy, checker.GetOverallStatus())
	assert.True(t, checker.GetLastHealthyTime().After(before) || checker.GetLastHealthyTime().Equal(before))
}

func TestCheckerConcurrentRuns(t *testing.T) {
	checker := NewChecker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				checker.RunCheck("ping", func() error { return nil })
				checker.GetOverallStatus()
				checker.GetAllChecks()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, StatusHealthy, checker.GetOverallStatus())
}
