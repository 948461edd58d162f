package validators_test

import (
	"testing"
	"time"

	"github.com/Egor213/AuditTrack/internal/controller/grpc/validators"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/stretchr/testify/assert"
)

func TestValidateFilter(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	testCases := []struct {
		name    string
		filter  viewer.FilterState
		wantErr error
	}{
		{name: "empty", filter: viewer.FilterState{}},
		{name: "ordered range", filter: viewer.FilterState{DateFrom: &early, DateTo: &late}},
		{name: "same day", filter: viewer.FilterState{DateFrom: &early, DateTo: &early}},
		{name: "reversed range", filter: viewer.FilterState{DateFrom: &late, DateTo: &early}, wantErr: validators.ErrInvalidDateRange},
		{name: "unknown action", filter: viewer.FilterState{ActionKind: "hack"}, wantErr: domain.ErrInvalidActionKind},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validators.ValidateFilter(tc.filter)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePage(t *testing.T) {
	assert.NoError(t, validators.ValidatePage(0, 0))
	assert.NoError(t, validators.ValidatePage(3, validators.MaxPageSize))
	assert.ErrorIs(t, validators.ValidatePage(-1, 20), validators.ErrInvalidPage)
	assert.ErrorIs(t, validators.ValidatePage(1, validators.MaxPageSize+1), validators.ErrInvalidPageSize)
}
