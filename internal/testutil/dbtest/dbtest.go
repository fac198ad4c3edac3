// Package dbtest opens migrated in-memory SQLite databases and seeds the
// rows lending tests need.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
	"apparatus-lending/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh migrated database. A single connection keeps the
// in-memory database shared and serializes concurrent transactions, which
// stands in for the row locks SQLite does not have.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func SeedBorrower(t *testing.T, gdb *gorm.DB, id uint64) *borrower.Borrower {
	t.Helper()
	b := &borrower.Borrower{ID: id, FirstName: "User", LastName: fmt.Sprint(id)}
	if err := gdb.Create(b).Error; err != nil {
		t.Fatalf("seed borrower %d: %v", id, err)
	}
	return b
}

// BanBorrower sets ban_until_date directly.
func BanBorrower(t *testing.T, gdb *gorm.DB, id uint64, until time.Time) {
	t.Helper()
	if err := gdb.Model(&borrower.Borrower{}).Where("id = ?", id).Update("ban_until_date", until.UTC()).Error; err != nil {
		t.Fatalf("ban borrower %d: %v", id, err)
	}
}

// SeedType creates a type with total good, available units and a matching
// availability cache.
func SeedType(t *testing.T, gdb *gorm.DB, name string, total int) *apparatus.Type {
	t.Helper()
	typ := &apparatus.Type{
		Name:           name,
		Category:       "glassware",
		TotalStock:     int64(total),
		AvailableStock: int64(total),
		Status:         apparatus.TypeUnavailable,
	}
	if total > 0 {
		typ.Status = apparatus.TypeAvailable
	}
	if err := gdb.Create(typ).Error; err != nil {
		t.Fatalf("seed type %s: %v", name, err)
	}
	if total > 0 {
		units := make([]apparatus.Unit, total)
		for i := range units {
			units[i] = apparatus.Unit{TypeID: typ.ID, Condition: apparatus.ConditionGood, Status: apparatus.UnitAvailable}
		}
		if err := gdb.Create(&units).Error; err != nil {
			t.Fatalf("seed units for %s: %v", name, err)
		}
	}
	return typ
}

func Type(t *testing.T, gdb *gorm.DB, id uint64) apparatus.Type {
	t.Helper()
	var typ apparatus.Type
	if err := gdb.First(&typ, id).Error; err != nil {
		t.Fatalf("load type %d: %v", id, err)
	}
	return typ
}

func Units(t *testing.T, gdb *gorm.DB, typeID uint64) []apparatus.Unit {
	t.Helper()
	var out []apparatus.Unit
	if err := gdb.Where("type_id = ?", typeID).Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("load units of %d: %v", typeID, err)
	}
	return out
}

// CheckStock fails t unless the type is consistent at rest:
//   - every unit sits in exactly one bucket (available, out, damaged, lost,
//     or lost while still held by an open overdue form);
//   - total, damaged and lost counters match those buckets;
//   - available_stock equals max(0, total-damaged-lost-out-pending);
//   - no unit is bound to two open forms.
func CheckStock(t *testing.T, gdb *gorm.DB, typeID uint64) {
	t.Helper()
	typ := Type(t, gdb, typeID)
	units := Units(t, gdb, typeID)

	var bound []uint64
	if err := gdb.Table("borrow_items AS bi").
		Joins("JOIN borrow_forms f ON f.id = bi.form_id").
		Where("bi.type_id = ? AND bi.unit_id IS NOT NULL AND f.status IN ?", typeID, borrow.Active).
		Pluck("bi.unit_id", &bound).Error; err != nil {
		t.Fatalf("load bound units of %d: %v", typeID, err)
	}
	held := make(map[uint64]int, len(bound))
	for _, id := range bound {
		held[id]++
		if held[id] == 2 {
			t.Errorf("unit %d is bound to more than one open form", id)
		}
	}

	var pending int64
	if err := gdb.Table("borrow_items AS bi").
		Joins("JOIN borrow_forms f ON f.id = bi.form_id").
		Where("bi.type_id = ? AND f.status = ?", typeID, borrow.StatusWaiting).
		Count(&pending).Error; err != nil {
		t.Fatalf("count pending of %d: %v", typeID, err)
	}

	var available, out, damaged, lost, lostHeld int64
	for _, u := range units {
		switch {
		case u.Status == apparatus.UnitAvailable:
			if u.Condition != apparatus.ConditionGood || held[u.ID] > 0 {
				t.Errorf("available unit %d is %s and held %d times", u.ID, u.Condition, held[u.ID])
			}
			available++
		case u.Status == apparatus.UnitBorrowed || u.Status == apparatus.UnitChecking:
			if held[u.ID] == 0 {
				t.Errorf("unit %d is %s without an open form", u.ID, u.Status)
			}
			out++
		case u.Condition == apparatus.ConditionDamaged:
			damaged++
		case u.Condition == apparatus.ConditionLost && held[u.ID] > 0:
			lostHeld++
		case u.Condition == apparatus.ConditionLost:
			lost++
		default:
			t.Errorf("unit %d is good but %s", u.ID, u.Status)
		}
	}

	if n := int64(len(units)); n != typ.TotalStock || available+out+damaged+lost+lostHeld != n {
		t.Errorf("type %d: %d units, total_stock %d, buckets available %d out %d damaged %d lost %d held-lost %d",
			typeID, n, typ.TotalStock, available, out, damaged, lost, lostHeld)
	}
	if damaged != typ.DamagedStock {
		t.Errorf("type %d: %d damaged units, damaged_stock %d", typeID, damaged, typ.DamagedStock)
	}
	if lost != typ.LostStock {
		t.Errorf("type %d: %d lost units, lost_stock %d", typeID, lost, typ.LostStock)
	}
	want := typ.TotalStock - typ.DamagedStock - typ.LostStock - out - pending
	if want < 0 {
		want = 0
	}
	if typ.AvailableStock != want {
		t.Errorf("type %d: available_stock %d, want %d (out %d, pending %d)", typeID, typ.AvailableStock, want, out, pending)
	}
	if (want > 0) != (typ.Status == apparatus.TypeAvailable) {
		t.Errorf("type %d: status %s with available_stock %d", typeID, typ.Status, want)
	}
}
