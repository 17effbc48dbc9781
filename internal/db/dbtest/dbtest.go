// Package dbtest provides in-memory SQLite databases carrying the full
// application schema for storage-level tests.
package dbtest

import (
	"testing"

	"regintel/internal/db"
	"regintel/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database. The pool is pinned to one
// connection because every SQLite :memory: connection is its own database.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb), "Failed to migrate schema")
	return gdb
}

// CreateUser inserts a profile with the given role.
func CreateUser(t *testing.T, gdb *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		DisplayName: name,
		Email:       name + "@example.com",
		Role:        role,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

// CreateCompany inserts a company with a registration number derived from name.
func CreateCompany(t *testing.T, gdb *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{
		Name:               name,
		RegistrationNumber: "REG-" + name,
		Country:            "US",
	}
	require.NoError(t, gdb.Create(company).Error)
	return company
}

// CreateComment inserts a comment bypassing the role gate, for fixtures.
func CreateComment(t *testing.T, gdb *gorm.DB, companyID, userID uint, content string, parentID *uint, approved bool) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		CompanyID:  companyID,
		UserID:     userID,
		Content:    content,
		ParentID:   parentID,
		IsApproved: approved,
	}
	require.NoError(t, gdb.Create(comment).Error)
	return comment
}
