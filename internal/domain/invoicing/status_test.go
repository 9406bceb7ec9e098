package invoicing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/internal/domain/invoicing"
)

func TestTransition(t *testing.T) {
	allowed := [][2]entity.InvoiceStatus{
		{entity.StatusDraft, entity.StatusSent},
		{entity.StatusSent, entity.StatusSent},
		{entity.StatusDraft, entity.StatusPaid},
		{entity.StatusSent, entity.StatusPaid},
		{entity.StatusOverdue, entity.StatusPaid},
		{entity.StatusPaid, entity.StatusPaid},
		{entity.StatusSent, entity.StatusOverdue},
		{entity.StatusOverdue, entity.StatusOverdue},
	}
	for _, tr := range allowed {
		assert.NoError(t, invoicing.Transition(tr[0], tr[1]), "%s -> %s debe permitirse", tr[0], tr[1])
	}

	denied := [][2]entity.InvoiceStatus{
		{entity.StatusPaid, entity.StatusSent},
		{entity.StatusPaid, entity.StatusOverdue},
		{entity.StatusDraft, entity.StatusOverdue},
		{entity.StatusOverdue, entity.StatusSent},
		{entity.StatusSent, entity.StatusDraft},
		{entity.StatusPaid, entity.StatusDraft},
	}
	for _, tr := range denied {
		assert.ErrorIs(t, invoicing.Transition(tr[0], tr[1]), domain.ErrInvalidTransition, "%s -> %s debe rechazarse", tr[0], tr[1])
	}
}

func TestEffectiveStatus(t *testing.T) {
	today := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)
	past := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, entity.StatusOverdue, invoicing.EffectiveStatus(entity.StatusSent, past, today))
	assert.Equal(t, entity.StatusSent, invoicing.EffectiveStatus(entity.StatusSent, sameDay, today))
	assert.Equal(t, entity.StatusDraft, invoicing.EffectiveStatus(entity.StatusDraft, past, today))
	assert.Equal(t, entity.StatusPaid, invoicing.EffectiveStatus(entity.StatusPaid, past, today))
}
