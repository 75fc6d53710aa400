package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
)

func unit(status entity.SerialStatus, counted bool) *entity.SerialUnit {
	return &entity.SerialUnit{ID: "u-1", SKUID: "sku-1", IMEI: "356938035643809", Status: status, Counted: counted}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones válidas con su efecto en el ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanTransition_Validas(t *testing.T) {
	in, out := entity.MovementTypeIN, entity.MovementTypeOUT
	tests := []struct {
		name        string
		from        entity.SerialStatus
		counted     bool
		ev          dominv.UnitEvent
		to          entity.SerialStatus
		wantCounted bool
		movType     entity.MovementType // vacío = sin movimiento
		movReason   entity.MovementReason
	}{
		{"venta", entity.SerialInStock, true, dominv.UnitEventSale, entity.SerialSold, false, out, entity.ReasonSale},
		{"reparación de unidad vendida", entity.SerialSold, false, dominv.UnitEventRepairOpen, entity.SerialRepair, false, "", ""},
		{"reparación interna", entity.SerialInStock, true, dominv.UnitEventRepairOpen, entity.SerialRepair, false, out, entity.ReasonRepair},
		{"fin reparación no contada", entity.SerialRepair, false, dominv.UnitEventRepairComplete, entity.SerialInStock, true, in, entity.ReasonRepair},
		{"fin reparación contada", entity.SerialRepair, true, dominv.UnitEventRepairComplete, entity.SerialInStock, true, "", ""},
		{"devolución de vendida", entity.SerialSold, false, dominv.UnitEventReturn, entity.SerialReturned, true, in, entity.ReasonReturn},
		{"devolución desde reparación no contada", entity.SerialRepair, false, dominv.UnitEventReturn, entity.SerialReturned, true, in, entity.ReasonReturn},
		{"devolución desde reparación contada", entity.SerialRepair, true, dominv.UnitEventReturn, entity.SerialReturned, true, "", ""},
		{"inspección", entity.SerialReturned, true, dominv.UnitEventInspection, entity.SerialInStock, true, "", ""},
		{"baja contada", entity.SerialInStock, true, dominv.UnitEventWriteOff, entity.SerialLost, false, out, entity.ReasonDamaged},
		{"baja de vendida", entity.SerialSold, false, dominv.UnitEventWriteOff, entity.SerialLost, false, "", ""},
		{"baja en reparación interna", entity.SerialRepair, true, dominv.UnitEventWriteOff, entity.SerialLost, false, out, entity.ReasonDamaged},
		{"baja de devuelta", entity.SerialReturned, true, dominv.UnitEventWriteOff, entity.SerialLost, false, out, entity.ReasonDamaged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := unit(tt.from, tt.counted)
			plan, err := dominv.PlanTransition(u, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.from, plan.From)
			assert.Equal(t, tt.to, plan.To)
			assert.Equal(t, tt.wantCounted, plan.Counted)
			if tt.movType == "" {
				assert.Nil(t, plan.Movement)
			} else {
				require.NotNil(t, plan.Movement)
				assert.Equal(t, tt.movType, plan.Movement.Type)
				assert.Equal(t, tt.movReason, plan.Movement.Reason)
				// el par planificado siempre es válido en la tabla de motivos
				assert.NoError(t, dominv.ValidateMovement(&entity.StockMovement{
					SKUID: "sku-1", Type: plan.Movement.Type, Quantity: 1, Reason: plan.Movement.Reason,
				}))
			}
			// la unidad no se muta
			assert.Equal(t, tt.from, u.Status)
			assert.Equal(t, tt.counted, u.Counted)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Cualquier otro par (evento, estado) es ErrInvalidTransition
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanTransition_Invalidas(t *testing.T) {
	tests := []struct {
		from entity.SerialStatus
		ev   dominv.UnitEvent
	}{
		{entity.SerialSold, dominv.UnitEventSale},
		{entity.SerialRepair, dominv.UnitEventSale},
		{entity.SerialLost, dominv.UnitEventSale},
		{entity.SerialReturned, dominv.UnitEventSale},
		{entity.SerialRepair, dominv.UnitEventRepairOpen},
		{entity.SerialLost, dominv.UnitEventRepairOpen},
		{entity.SerialReturned, dominv.UnitEventRepairOpen},
		{entity.SerialInStock, dominv.UnitEventRepairComplete},
		{entity.SerialSold, dominv.UnitEventRepairComplete},
		{entity.SerialInStock, dominv.UnitEventReturn},
		{entity.SerialLost, dominv.UnitEventReturn},
		{entity.SerialReturned, dominv.UnitEventReturn},
		{entity.SerialInStock, dominv.UnitEventInspection},
		{entity.SerialSold, dominv.UnitEventInspection},
		{entity.SerialLost, dominv.UnitEventWriteOff},
		{entity.SerialInStock, dominv.UnitEvent("TELEPORT")},
	}
	for _, tt := range tests {
		t.Run(string(tt.ev)+"_desde_"+string(tt.from), func(t *testing.T) {
			_, err := dominv.PlanTransition(unit(tt.from, false), tt.ev)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		})
	}
}
