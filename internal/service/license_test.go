package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"license-auth-api/internal/database"
	"license-auth-api/internal/model"
	"license-auth-api/internal/repository"

	"github.com/stretchr/testify/assert"
)

type staticGeo struct {
	code string
}

func (g staticGeo) Country(string) string {
	if g.code == "" {
		return UnknownCountry
	}
	return g.code
}

func newTestService(t *testing.T) (*LicenseService, repository.LicenseRepository) {
	database.InitTestDB()
	t.Cleanup(database.CleanTestDB)
	repo := repository.NewGormLicenseRepository(database.DB)
	return NewLicenseService(repo, staticGeo{code: "DE"}), repo
}

var testCtx = VerifyContext{IPAddress: "203.0.113.7", UserAgent: "test-agent"}

func TestIssueValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name      string
		expiresAt string
		wantErr   error
	}{
		{name: "valid_date", expiresAt: "2999-01-01", wantErr: nil},
		{name: "garbage_date", expiresAt: "not-a-date", wantErr: ErrInvalidDate},
		{name: "wrong_format", expiresAt: "01/01/2999", wantErr: ErrInvalidDate},
		{name: "empty_date", expiresAt: "", wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic, err := svc.Issue(tt.expiresAt, "", "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, lic)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "basic", lic.Plan) // default when absent
			assert.Nil(t, lic.Hwid)            // unbound at creation
		})
	}
}

func TestIssuePreBound(t *testing.T) {
	svc, repo := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "device-pre", "pro")
	assert.NoError(t, err)
	assert.True(t, lic.Bound())

	stored, err := repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.NotNil(t, stored.Hwid)
	assert.Equal(t, "device-pre", *stored.Hwid)

	// A pre-bound key only verifies from the registered device.
	_, err = svc.Verify(lic.Key, "device-other", testCtx)
	assert.ErrorIs(t, err, ErrHwidMismatch)

	result, err := svc.Verify(lic.Key, "device-pre", testCtx)
	assert.NoError(t, err)
	assert.Equal(t, "pro", result.Plan)
}

func TestVerifyUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Verify("LIC-DOESNOTEXIST", "device-A", testCtx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, result)
}

func TestVerifyLifecycle(t *testing.T) {
	svc, repo := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "", "pro")
	assert.NoError(t, err)

	// First verification binds the caller's device.
	result, err := svc.Verify(lic.Key, "device-A", testCtx)
	assert.NoError(t, err)
	assert.Equal(t, "2999-01-01", result.ExpiresAt)
	assert.Equal(t, "pro", result.Plan)

	stored, err := repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.NotNil(t, stored.Hwid)
	assert.Equal(t, "device-A", *stored.Hwid)

	// A different device is rejected and the binding stays put.
	_, err = svc.Verify(lic.Key, "device-B", testCtx)
	assert.ErrorIs(t, err, ErrHwidMismatch)

	stored, err = repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.Equal(t, "device-A", *stored.Hwid)

	// The bound device keeps working.
	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.NoError(t, err)

	// Admin reset lets the other device claim the key.
	err = svc.ResetBinding(lic.Key)
	assert.NoError(t, err)

	result, err = svc.Verify(lic.Key, "device-B", testCtx)
	assert.NoError(t, err)
	assert.Equal(t, "pro", result.Plan)

	stored, err = repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.Equal(t, "device-B", *stored.Hwid)
}

func TestVerifyExpired(t *testing.T) {
	svc, _ := newTestService(t)

	lic, err := svc.Issue("2000-01-01", "device-A", "basic")
	assert.NoError(t, err)

	// Expiry wins even when the hardware id matches.
	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyExpiredUnboundNeverBinds(t *testing.T) {
	svc, repo := newTestService(t)

	lic, err := svc.Issue("2000-01-01", "", "basic")
	assert.NoError(t, err)

	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.ErrorIs(t, err, ErrExpired)

	stored, err := repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.Nil(t, stored.Hwid)
}

func TestMalformedStoredDateFailsClosed(t *testing.T) {
	svc, repo := newTestService(t)

	// Bypass Issue validation to simulate corrupted stored data.
	hwid := "device-A"
	ok, err := repo.Insert(&model.License{
		Key:       "LIC-BADDATE",
		Hwid:      &hwid,
		ExpiresAt: "eventually",
		Plan:      "basic",
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Verify("LIC-BADDATE", "device-A", testCtx)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestConcurrentFirstVerifySingleBinding(t *testing.T) {
	svc, repo := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "", "basic")
	assert.NoError(t, err)

	const callers = 16
	hwids := make([]string, callers)
	for i := range hwids {
		hwids[i] = "device-" + string(rune('A'+i))
	}

	var wg sync.WaitGroup
	outcomes := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, outcomes[i] = svc.Verify(lic.Key, hwids[i], testCtx)
		}(i)
	}
	wg.Wait()

	var successes, mismatches int
	var winner string
	for i, err := range outcomes {
		switch {
		case err == nil:
			successes++
			winner = hwids[i]
		case errors.Is(err, ErrHwidMismatch):
			mismatches++
		default:
			t.Fatalf("unexpected outcome for %s: %v", hwids[i], err)
		}
	}

	// Exactly one caller binds; everyone else gets a deterministic mismatch.
	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, mismatches)

	stored, err := repo.GetByKey(lic.Key)
	assert.NoError(t, err)
	assert.NotNil(t, stored.Hwid)
	assert.Equal(t, winner, *stored.Hwid)
}

func TestVerifyRecordsUsage(t *testing.T) {
	svc, _ := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "", "basic")
	assert.NoError(t, err)

	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.NoError(t, err)
	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.NoError(t, err)

	summary, err := svc.Inspect(lic.Key)
	assert.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Equal(t, int64(2), summary.LoginCount)
	assert.Equal(t, "device-A", summary.Hwid)
	assert.Equal(t, "DE", summary.GeoCountry)
	assert.Equal(t, testCtx.IPAddress, summary.IPAddress)
}

func TestInspectNeverVerified(t *testing.T) {
	svc, _ := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "", "basic")
	assert.NoError(t, err)

	// Existing key, no usage yet: no data rather than not found.
	summary, err := svc.Inspect(lic.Key)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestResetAndDeleteUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.ResetBinding("LIC-DOESNOTEXIST"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete("LIC-DOESNOTEXIST"), ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	svc, _ := newTestService(t)

	lic, err := svc.Issue("2999-01-01", "", "basic")
	assert.NoError(t, err)

	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(lic.Key))

	_, err = svc.Verify(lic.Key, "device-A", testCtx)
	assert.ErrorIs(t, err, ErrNotFound)

	summary, err := svc.Inspect(lic.Key)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}
