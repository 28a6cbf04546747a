package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/validation"
)

type resolveRequest struct {
	Code string `json:"code" validate:"required,accesscode"`
}

type addRequest struct {
	PhotoID string `json:"photo_id" validate:"required,photoid"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

func TestValidator_AccessCode(t *testing.T) {
	v := validation.New()

	tests := []struct {
		code  string
		valid bool
	}{
		{"CASAMENTO01", true},
		{" casamento01 ", true},
		{"festa2026", true},
		{"", false},
		{"com espaço", false},
		{"A-B", false},
		{"ação", false},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := v.Validate(resolveRequest{Code: tt.code})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
		})
	}
}

func TestValidator_DetailsUseJSONNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(loginRequest{Username: "", Password: "short"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["username"])
	assert.Equal(t, "must be at least 8 characters", details["password"])
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(loginRequest{Username: "admin", Password: "long enough"}))
}

func TestValidator_PhotoID(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(addRequest{PhotoID: "pho-V1StGXR8_Z5jdHi6B-myT"}))

	for _, bad := range []string{"", "pho-", "alb-V1StGXR8", "V1StGXR8"} {
		err := v.Validate(addRequest{PhotoID: bad})
		require.Error(t, err, bad)
		assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err), bad)
	}

	var domainErr *domainerrors.Error
	require.ErrorAs(t, v.Validate(addRequest{PhotoID: "alb-1"}), &domainErr)
	assert.Equal(t, "is not a photo id", domainErr.Details.(map[string]string)["photo_id"])
}
