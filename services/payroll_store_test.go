package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payportal/constants"
	apperrors "payportal/errors"
	"payportal/models"
)

func employeeRow(code string, salary int64) map[string]interface{} {
	return map[string]interface{}{
		constants.FieldEmployeeCode: code,
		constants.FieldBaseSalary:   salary,
	}
}

func monthRowCount(t *testing.T, svc *PayrollService, companyID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, svc.db.Model(&models.PayrollRow{}).
		Where("company_id = ?", companyID).
		Count(&count).Error)
	return count
}

func TestBulkSavePersistsDerivedDeductions(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	views, err := svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
		employeeRow("E1", 3_000_000),
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(135_000), views[0].Deductions.NationalPension)

	header, err := svc.Month(ctx, 1, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, constants.MonthStatusInProgress, header.Status)
}

func TestUpsertRowRejectsClosedMonth(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
		employeeRow("E1", 3_000_000),
	})
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, 2025, 7)
	require.NoError(t, err)

	_, err = svc.UpsertRow(ctx, 1, 2025, 7, "E2", employeeRow("E2", 2_000_000))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMonthClosed))
	assert.Equal(t, int64(1), monthRowCount(t, svc, 1))

	_, err = svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
		employeeRow("E2", 2_000_000),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMonthClosed))
	assert.Equal(t, int64(1), monthRowCount(t, svc, 1))
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
		employeeRow("E1", 3_000_000),
		employeeRow("E2", 2_000_000),
	})
	require.NoError(t, err)

	header, err := svc.Close(ctx, 1, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, constants.MonthStatusClosed, header.Status)

	again, err := svc.Close(ctx, 1, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, constants.MonthStatusClosed, again.Status)
	assert.Equal(t, int64(2), monthRowCount(t, svc, 1))
}

func TestCloseWithoutRowsConflicts(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	// An empty bulk save leaves the header open with zero rows.
	_, err := svc.BulkSave(ctx, 1, 2025, 7, nil)
	require.NoError(t, err)

	_, err = svc.Close(ctx, 1, 2025, 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestCloseMissingMonthNotFound(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	_, err := svc.Close(context.Background(), 1, 2025, 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestReopenAllowsWrites(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
		employeeRow("E1", 3_000_000),
	})
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, 2025, 7)
	require.NoError(t, err)

	header, err := svc.Reopen(ctx, 1, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, constants.MonthStatusInProgress, header.Status)

	_, err = svc.UpsertRow(ctx, 1, 2025, 7, "E2", employeeRow("E2", 2_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(2), monthRowCount(t, svc, 1))
}

func TestListRowsCompleteUnderConcurrentInsert(t *testing.T) {
	svc, _ := newTestPayrollService(t)
	ctx := context.Background()

	initial := []map[string]interface{}{
		employeeRow("E1", 1_000_000),
		employeeRow("E2", 2_000_000),
		employeeRow("E3", 3_000_000),
		employeeRow("E4", 4_000_000),
		employeeRow("E5", 5_000_000),
	}
	_, err := svc.BulkSave(ctx, 1, 2025, 7, initial)
	require.NoError(t, err)

	views, cursor, err := svc.ListRows(ctx, 1, 2025, 7, "", 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotEmpty(t, cursor)

	// A row lands between pages; rows already paged out must not repeat
	// and none of the original rows may be skipped.
	_, err = svc.UpsertRow(ctx, 1, 2025, 7, "E6", employeeRow("E6", 6_000_000))
	require.NoError(t, err)

	seen := map[string]int{}
	for _, v := range views {
		seen[v.RowIdentifier]++
	}
	for cursor != "" {
		views, cursor, err = svc.ListRows(ctx, 1, 2025, 7, cursor, 2)
		require.NoError(t, err)
		for _, v := range views {
			seen[v.RowIdentifier]++
		}
	}

	for _, id := range []string{"E1", "E2", "E3", "E4", "E5"} {
		assert.Equal(t, 1, seen[id], id)
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestBulkSaveReplayCreatesNoSecondWrite(t *testing.T) {
	svc, db := newTestPayrollService(t)
	idem := NewIdempotencyService(IdempotencyServiceOptions{DB: db})
	ctx := context.Background()
	body := []byte(`{"rows":[{"사원코드":"E1","기본급":3000000}]}`)

	save := func() (int, interface{}, error) {
		views, err := svc.BulkSave(ctx, 1, 2025, 7, []map[string]interface{}{
			employeeRow("E1", 3_000_000),
		})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, views, nil
	}

	first, err := idem.ExecuteOnce(ctx, "PUT", "/rows", "retry-1", nil, body, save)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := idem.ExecuteOnce(ctx, "PUT", "/rows", "retry-1", nil, body, save)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.JSONEq(t, string(first.Body), string(second.Body))
	assert.Equal(t, int64(1), monthRowCount(t, svc, 1))

	// The same key with a changed payload is refused outright.
	_, err = idem.ExecuteOnce(ctx, "PUT", "/rows", "retry-1", nil, []byte(`{"rows":[]}`), save)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIdempotencyKey))
	assert.Equal(t, int64(1), monthRowCount(t, svc, 1))
}
