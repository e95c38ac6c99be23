package model

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Kentron", want: "kentron"},
		{in: "  Arabkir District ", want: "arabkir-district"},
		{in: "Tower_B  block--2", want: "tower-b-block-2"},
		{in: "--Edge--", want: "edge"},
		{in: "Café №5", want: "caf-5"},
		{in: "", want: ""},
		{in: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSlug(tt.in))
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("sold")
	require.NoError(t, err)
	assert.Equal(t, StatusSold, status)

	status, err = ParseStatus(" Reserved ")
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, status)

	_, err = ParseStatus("archived")
	assert.Error(t, err)

	assert.Len(t, Statuses, 4)
	assert.NotContains(t, NotSoldStatuses, StatusSold)
}

func TestParseSalesTypeAndFileType(t *testing.T) {
	sales, err := ParseSalesType("mortgage")
	require.NoError(t, err)
	assert.Equal(t, SalesTypeMortgage, sales)

	_, err = ParseSalesType("barter")
	assert.Error(t, err)

	fileType, err := ParseFileType("progress_image")
	require.NoError(t, err)
	assert.Equal(t, FileTypeProgressImage, fileType)
	assert.True(t, fileType.IsImage())
	assert.False(t, FileTypeAgreement.IsImage())

	_, err = ParseFileType("video")
	assert.Error(t, err)
}

func TestOrderColumn_IsValid(t *testing.T) {
	assert.True(t, OrderTotalPaid.IsValid())
	assert.False(t, OrderColumn("balance").IsValid())
}

func TestApartment_BuildingLabel(t *testing.T) {
	districtID := uuid.New()
	apt := &Apartment{}
	assert.Equal(t, "", apt.BuildingLabel())
	_, ok := apt.DistrictID()
	assert.False(t, ok)

	apt.Building = &Building{Name: "Tower A", DistrictID: districtID}
	assert.Equal(t, "Tower A", apt.BuildingLabel())

	apt.Building.District = &District{Name: "Kentron"}
	assert.Equal(t, "Kentron - Tower A", apt.BuildingLabel())

	id, ok := apt.DistrictID()
	assert.True(t, ok)
	assert.Equal(t, districtID, id)
}

func TestErrors(t *testing.T) {
	assert.NoError(t, Invalid(nil))

	err := Invalid(validation.Errors{"limit": errors.New("must be no less than 0")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{"limit": "must be no less than 0"}, ve.Fields())
	assert.Same(t, err, Invalid(err))

	dep := &DependentsError{Entity: "district", Dependent: "Building", Count: 1}
	assert.Equal(t, "cannot delete district: 1 dependent building(s)", dep.Error())

	wrapped := fmt.Errorf("update: %w", &NotFoundError{Entity: "building", ID: "x"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("other")))
}
