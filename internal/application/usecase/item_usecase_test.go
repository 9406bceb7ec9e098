package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/application/usecase"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/infrastructure/memory"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestItemUseCase_CreateDefaults(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Items(), "")
	ctx := auth.WithUserID(context.Background(), "u1")

	item, err := uc.Create(ctx, dto.ItemRequest{Name: " Consultoría ", UnitPrice: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "Consultoría", item.Name)
	assert.Equal(t, "hour", item.UnitLabel)
	assert.True(t, item.TaxRate.IsZero())

	got, err := uc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(got.UnitPrice))
}

func TestItemUseCase_Validation(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Items(), "hour")
	ctx := auth.WithUserID(context.Background(), "u1")

	cases := map[string]dto.ItemRequest{
		"name":                     {UnitPrice: dec("1")},
		"unit_price":               {Name: "x"},
		"negativo":                 {Name: "x", UnitPrice: dec("-1")},
		"tax_rate":                 {Name: "x", UnitPrice: dec("1"), TaxRate: dec("101")},
		"unit_label":               {Name: "x", UnitPrice: dec("1"), UnitLabel: "parsec"},
		"precio con 7 decimales":   {Name: "x", UnitPrice: dec("0.1234567")},
		"impuesto con 5 decimales": {Name: "x", UnitPrice: dec("1"), TaxRate: dec("7.50001")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestItemUseCase_UpdateKeepsOmittedFields(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Items(), "hour")
	ctx := auth.WithUserID(context.Background(), "u1")

	item, err := uc.Create(ctx, dto.ItemRequest{Name: "Licencia", UnitPrice: dec("100"), TaxRate: dec("21"), UnitLabel: "piece"})
	require.NoError(t, err)

	updated, err := uc.Update(ctx, item.ID, dto.ItemRequest{Name: "Licencia anual"})
	require.NoError(t, err)
	assert.Equal(t, "Licencia anual", updated.Name)
	assert.True(t, decimal.NewFromInt(100).Equal(updated.UnitPrice))
	assert.True(t, decimal.NewFromInt(21).Equal(updated.TaxRate))
	assert.Equal(t, "piece", updated.UnitLabel)
}

func TestItemUseCase_Ownership(t *testing.T) {
	uc := usecase.NewItemUseCase(memory.NewStore().Items(), "hour")
	owner := auth.WithUserID(context.Background(), "u1")
	other := auth.WithUserID(context.Background(), "u2")

	item, err := uc.Create(owner, dto.ItemRequest{Name: "Soporte", UnitPrice: dec("10")})
	require.NoError(t, err)

	_, err = uc.GetByID(other, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(other, item.ID, dto.ItemRequest{Name: "robado"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.List(other, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Equal(t, 20, list.Page.Limit)

	_, err = uc.List(context.Background(), dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
