package catalog_test

import (
	"context"
	"testing"
	"time"

	mysqlrepo "apparatus-lending/internal/adapter/repository/mysql"
	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/infrastructure/logging"
	"apparatus-lending/internal/testutil/dbtest"
	"apparatus-lending/internal/usecase/catalog"
	"apparatus-lending/internal/usecase/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const staffID = 900

func setup(t *testing.T) (*gorm.DB, *catalog.Service, *loan.Ledger) {
	t.Helper()
	db := dbtest.Open(t)
	tx := mysqlrepo.NewGormUoW(db)
	return db, catalog.New(tx, logging.Discard()), loan.NewLedger(tx, loan.WithLogger(logging.Discard()))
}

func request(t *testing.T, ledger *loan.Ledger, borrowerID, typeID uint64, qty int) *loan.FormDTO {
	t.Helper()
	now := time.Now()
	f, err := ledger.Submit(context.Background(), loan.SubmitInput{
		BorrowerID: borrowerID, FormType: borrow.TypeBorrow,
		Lines:      []loan.LineInput{{TypeID: typeID, Quantity: qty}},
		BorrowDate: now, ExpectedReturnDate: now.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	return f
}

func TestCreateType_ProvisionsUnitsPerCondition(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()

	typ, err := svc.CreateType(ctx, catalog.CreateTypeInput{
		Name: "Erlenmeyer flask", Category: "glassware", Size: "500mL", Material: "borosilicate",
		Total: 6, Damaged: 1, Lost: 1, ActorID: staffID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), typ.AvailableStock)
	assert.Equal(t, apparatus.TypeAvailable, typ.Status)

	units := dbtest.Units(t, db, typ.ID)
	require.Len(t, units, 6)
	conds := map[apparatus.UnitCondition]int{}
	for _, u := range units {
		conds[u.Condition]++
		if u.Condition == apparatus.ConditionGood {
			assert.Equal(t, apparatus.UnitAvailable, u.Status)
		} else {
			assert.Equal(t, apparatus.UnitUnavailable, u.Status)
		}
	}
	assert.Equal(t, map[apparatus.UnitCondition]int{
		apparatus.ConditionGood: 4, apparatus.ConditionDamaged: 1, apparatus.ConditionLost: 1,
	}, conds)

	var entry audit.Entry
	require.NoError(t, db.Where("action = ?", audit.ActionTypeCreated).First(&entry).Error)
	assert.Nil(t, entry.FormID)
	assert.Equal(t, uint64(staffID), entry.ActorID)
}

func TestCreateType_Rejections(t *testing.T) {
	_, svc, _ := setup(t)
	ctx := context.Background()
	base := catalog.CreateTypeInput{Name: "Beaker", Category: "glassware", Size: "250mL", Total: 2, ActorID: staffID}
	_, err := svc.CreateType(ctx, base)
	require.NoError(t, err)

	tests := []struct {
		name string
		mut  func(in *catalog.CreateTypeInput)
		want error
	}{
		{"duplicate", func(in *catalog.CreateTypeInput) {}, apparatus.ErrDuplicateType},
		{"blank name", func(in *catalog.CreateTypeInput) { in.Name = "  " }, apparatus.ErrInvalidStock},
		{"negative total", func(in *catalog.CreateTypeInput) { in.Size = "1L"; in.Total = -1 }, apparatus.ErrInvalidStock},
		{"broken exceeds total", func(in *catalog.CreateTypeInput) { in.Size = "1L"; in.Damaged = 2; in.Lost = 1 }, apparatus.ErrInvalidStock},
		{"no actor", func(in *catalog.CreateTypeInput) { in.Size = "1L"; in.ActorID = 0 }, audit.ErrMissingActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mut(&in)
			_, err := svc.CreateType(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateStock_GrowAndShrink(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	typ := dbtest.SeedType(t, db, "Pipette", 3)

	snap, err := svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 5, ActorID: staffID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Available)
	assert.Len(t, dbtest.Units(t, db, typ.ID), 5)
	dbtest.CheckStock(t, db, typ.ID)

	snap, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 2, Damaged: 1, ActorID: staffID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Available)
	units := dbtest.Units(t, db, typ.ID)
	require.Len(t, units, 2)
	assert.Less(t, units[1].ID, uint64(3), "highest ids are removed first")
	assert.Equal(t, apparatus.ConditionGood, units[0].Condition)
	assert.Equal(t, apparatus.UnitAvailable, units[0].Status)
	assert.Equal(t, apparatus.ConditionDamaged, units[1].Condition)
	assert.Equal(t, apparatus.UnitUnavailable, units[1].Status)

	stored := dbtest.Type(t, db, typ.ID)
	assert.Equal(t, int64(2), stored.TotalStock)
	assert.Equal(t, int64(1), stored.DamagedStock)
	dbtest.CheckStock(t, db, typ.ID)
}

func TestUpdateStock_RepairedUnitsCanBeApproved(t *testing.T) {
	db, svc, ledger := setup(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 1)
	typ, err := svc.CreateType(ctx, catalog.CreateTypeInput{Name: "Flask", Total: 5, Damaged: 2, ActorID: staffID})
	require.NoError(t, err)

	snap, err := svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 5, ActorID: staffID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Available)
	for _, u := range dbtest.Units(t, db, typ.ID) {
		assert.Equal(t, apparatus.ConditionGood, u.Condition, "unit %d", u.ID)
		assert.Equal(t, apparatus.UnitAvailable, u.Status, "unit %d", u.ID)
	}
	dbtest.CheckStock(t, db, typ.ID)

	f := request(t, ledger, 1, typ.ID, 5)
	_, err = ledger.Approve(ctx, loan.TransitionInput{FormID: f.ID, ActorID: staffID})
	require.NoError(t, err)
	dbtest.CheckStock(t, db, typ.ID)
}

func TestUpdateStock_ReconcilesConditionsAroundLoans(t *testing.T) {
	db, svc, ledger := setup(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 1)
	typ, err := svc.CreateType(ctx, catalog.CreateTypeInput{Name: "Thermometer", Total: 6, Damaged: 1, Lost: 1, ActorID: staffID})
	require.NoError(t, err)
	dbtest.CheckStock(t, db, typ.ID)

	f := request(t, ledger, 1, typ.ID, 2)
	_, err = ledger.Approve(ctx, loan.TransitionInput{FormID: f.ID, ActorID: staffID})
	require.NoError(t, err)
	dbtest.CheckStock(t, db, typ.ID)

	// lost unit found, one more idle unit cracked
	snap, err := svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 6, Damaged: 2, ActorID: staffID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Available)
	dbtest.CheckStock(t, db, typ.ID)

	snap, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 8, Lost: 3, ActorID: staffID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Available)
	dbtest.CheckStock(t, db, typ.ID)

	for _, u := range dbtest.Units(t, db, typ.ID) {
		if u.Status == apparatus.UnitBorrowed {
			assert.Equal(t, apparatus.ConditionGood, u.Condition, "borrowed unit %d must stay untouched", u.ID)
		}
	}

	_, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 8, Lost: 7, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrStockTooLow)
	assert.Equal(t, int64(3), dbtest.Type(t, db, typ.ID).LostStock)
	dbtest.CheckStock(t, db, typ.ID)
}

func TestUpdateStock_CountersWithoutUnitsAreRefused(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	typ := dbtest.SeedType(t, db, "Clamp", 3)
	// damaged_stock drifted away from the unit rows
	require.NoError(t, db.Model(&apparatus.Type{}).Where("id = ?", typ.ID).Update("damaged_stock", 1).Error)

	_, err := svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 3, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrStockTooLow)
	assert.Equal(t, int64(1), dbtest.Type(t, db, typ.ID).DamagedStock)
	for _, u := range dbtest.Units(t, db, typ.ID) {
		assert.Equal(t, apparatus.UnitAvailable, u.Status)
	}
}

func TestUpdateStock_CannotUndercutCommitments(t *testing.T) {
	db, svc, ledger := setup(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 1)
	typ := dbtest.SeedType(t, db, "Burner", 4)
	request(t, ledger, 1, typ.ID, 3)

	_, err := svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 4, Lost: 2, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrStockTooLow)
	_, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 2, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrStockTooLow)

	stored := dbtest.Type(t, db, typ.ID)
	assert.Equal(t, int64(4), stored.TotalStock)
	assert.Equal(t, int64(1), stored.AvailableStock)

	_, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: 999, Total: 1, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrTypeNotFound)
}

func TestUpdateStock_KeepsUnitsWithLoanHistory(t *testing.T) {
	db, svc, ledger := setup(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 1)
	typ := dbtest.SeedType(t, db, "Tongs", 2)

	f := request(t, ledger, 1, typ.ID, 2)
	_, err := ledger.Approve(ctx, loan.TransitionInput{FormID: f.ID, ActorID: staffID})
	require.NoError(t, err)
	_, err = ledger.ConfirmReturn(ctx, loan.TransitionInput{FormID: f.ID, ActorID: staffID})
	require.NoError(t, err)

	_, err = svc.UpdateStock(ctx, catalog.UpdateStockInput{TypeID: typ.ID, Total: 1, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrStockTooLow)
	assert.Len(t, dbtest.Units(t, db, typ.ID), 2)
}

func TestRemoveType(t *testing.T) {
	db, svc, ledger := setup(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 1)
	idle := dbtest.SeedType(t, db, "Spatula", 2)
	used := dbtest.SeedType(t, db, "Crucible", 2)
	request(t, ledger, 1, used.ID, 1)

	require.NoError(t, svc.RemoveType(ctx, catalog.RemoveTypeInput{TypeID: idle.ID, ActorID: staffID}))
	assert.Empty(t, dbtest.Units(t, db, idle.ID))
	_, err := svc.GetType(ctx, idle.ID)
	assert.ErrorIs(t, err, apparatus.ErrTypeNotFound)

	err = svc.RemoveType(ctx, catalog.RemoveTypeInput{TypeID: used.ID, ActorID: staffID})
	assert.ErrorIs(t, err, apparatus.ErrTypeInUse)
	assert.Len(t, dbtest.Units(t, db, used.ID), 2)
}

func TestRefreshAndListUnits(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	typ := dbtest.SeedType(t, db, "Funnel", 3)
	require.NoError(t, db.Model(&apparatus.Type{}).Where("id = ?", typ.ID).Update("available_stock", 0).Error)

	snap, err := svc.Refresh(ctx, typ.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Available)
	assert.Equal(t, int64(3), dbtest.Type(t, db, typ.ID).AvailableStock)

	units, err := svc.ListUnits(ctx, typ.ID)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Less(t, units[0].ID, units[2].ID)

	_, err = svc.ListUnits(ctx, 404)
	assert.ErrorIs(t, err, apparatus.ErrTypeNotFound)
	_, err = svc.Refresh(ctx, 404)
	assert.ErrorIs(t, err, apparatus.ErrTypeNotFound)

	types, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}
