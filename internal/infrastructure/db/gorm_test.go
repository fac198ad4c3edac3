package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial, WithLogLevel("silent"))
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDialector(t *testing.T) {
	cases := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{"mysql", "mysql", false},
		{"", "mysql", false},
		{"POSTGRES", "postgres", false},
		{"oracle", "", true},
	}
	for _, tc := range cases {
		d, err := Dialector(tc.driver, "dsn")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.driver)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", tc.driver, err)
		}
		if d.Name() != tc.name {
			t.Fatalf("%q: dialector = %s, want %s", tc.driver, d.Name(), tc.name)
		}
	}
}

func TestMigrate_CreatesLendingTables(t *testing.T) {
	gdb, err := OpenGormWithDialector(sqlite.Open(":memory:"), WithLogLevel("silent"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"users", "apparatus_types", "apparatus_units", "borrow_forms", "borrow_items", "audit_logs"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("table %s not created", table)
		}
	}
	// idempotent
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestParseLogLevel_Default(t *testing.T) {
	if got := parseLogLevel("bogus"); got != parseLogLevel("warn") {
		t.Fatalf("unknown level should fall back to warn, got %v", got)
	}
}
