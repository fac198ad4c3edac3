package apparatus

import (
	"errors"
	"time"
)

var (
	ErrTypeNotFound  = errors.New("apparatus type not found")
	ErrUnitNotFound  = errors.New("apparatus unit not found")
	ErrNotDamaged    = errors.New("unit is not damaged")
	ErrDuplicateType = errors.New("apparatus type already exists")
	ErrStockTooLow   = errors.New("stock too low for current loans and pending requests")
	ErrTypeInUse     = errors.New("apparatus type is referenced by loan history")
	ErrInvalidStock  = errors.New("invalid stock counts")
)

type TypeStatus string

const (
	TypeAvailable   TypeStatus = "available"
	TypeUnavailable TypeStatus = "unavailable"
)

type UnitCondition string

const (
	ConditionGood    UnitCondition = "good"
	ConditionDamaged UnitCondition = "damaged"
	ConditionLost    UnitCondition = "lost"
)

type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitBorrowed    UnitStatus = "borrowed"
	UnitChecking    UnitStatus = "checking"
	UnitUnavailable UnitStatus = "unavailable"
)

// OutStatuses are the unit statuses counted as currently out.
var OutStatuses = []UnitStatus{UnitBorrowed, UnitChecking}

// Type is one category of equipment. AvailableStock and Status are a cache
// maintained by the stock aggregator; never read them as a source of truth.
type Type struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"id"`
	Name           string     `gorm:"column:name;size:120;not null" json:"name"`
	Category       string     `gorm:"column:category;size:80" json:"category"`
	Size           string     `gorm:"column:size;size:40" json:"size"`
	Material       string     `gorm:"column:material;size:40" json:"material"`
	Description    string     `gorm:"column:description;type:text" json:"description"`
	Image          string     `gorm:"column:image;size:255" json:"image"`
	TotalStock     int64      `gorm:"column:total_stock;not null;default:0" json:"total_stock"`
	DamagedStock   int64      `gorm:"column:damaged_stock;not null;default:0" json:"damaged_stock"`
	LostStock      int64      `gorm:"column:lost_stock;not null;default:0" json:"lost_stock"`
	AvailableStock int64      `gorm:"column:available_stock;not null;default:0" json:"available_stock"`
	Status         TypeStatus `gorm:"column:status;size:20;not null;default:'unavailable'" json:"status"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Type) TableName() string { return "apparatus_types" }

// PhysicalStock is the count of units that still exist in usable form.
func (t Type) PhysicalStock() int64 { return t.TotalStock - t.DamagedStock - t.LostStock }

// Unit is one individually tracked physical item of a Type.
type Unit struct {
	ID        uint64        `gorm:"primaryKey;column:id" json:"id"`
	TypeID    uint64        `gorm:"column:type_id;not null;index:idx_units_type_status" json:"type_id"`
	Serial    *string       `gorm:"column:serial_number;size:120" json:"serial_number,omitempty"`
	Condition UnitCondition `gorm:"column:current_condition;size:20;not null;default:'good'" json:"current_condition"`
	Status    UnitStatus    `gorm:"column:current_status;size:20;not null;default:'available';index:idx_units_type_status" json:"current_status"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Unit) TableName() string { return "apparatus_units" }
