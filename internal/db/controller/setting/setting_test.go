package setting

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoPowerDNS-Admin/go-settings/internal/db/models"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

var (
	system = scope.Named("system")
	alice  = scope.Owned(scope.Owner{Kind: "User", ID: "1"})
	bob    = scope.Owned(scope.Owner{Kind: "User", ID: "2"})
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err, "failed to create test database")

	// a single connection keeps the in-memory database alive and shared
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedSettings inserts test data into the database.
func seedSettings(t *testing.T, db *gorm.DB, settings []models.Setting) {
	t.Helper()

	for _, setting := range settings {
		err := db.Create(&setting).Error
		require.NoError(t, err, "failed to seed test data")
	}
}

func row(sc scope.Scope, key, raw string) models.Setting {
	return models.Setting{
		Scope:     sc.Name,
		OwnerKind: sc.Owner.Kind,
		OwnerID:   sc.Owner.ID,
		Key:       key,
		Type:      "string",
		Value:     []byte(raw),
	}
}

func TestFind(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		key           string
		scope         scope.Scope
		seedData      []models.Setting
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", dbParam: nil, key: "a", scope: system, expectedError: ErrDBNil},
		{name: "empty key", dbParam: db, key: "", scope: system, expectedError: ErrSettingKeyEmpty},
		{name: "empty scope", dbParam: db, key: "a", scope: scope.Scope{}, expectedError: ErrScopeEmpty},
		{name: "not found", dbParam: db, key: "a", scope: system, expectedError: ErrSettingNotFound},
		{
			name:          "other owner is not visible",
			dbParam:       db,
			key:           "theme",
			scope:         bob,
			seedData:      []models.Setting{row(alice, "theme", `"light"`)},
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "owner scoped row",
			dbParam:       db,
			key:           "theme",
			scope:         alice,
			seedData:      []models.Setting{row(alice, "theme", `"light"`), row(bob, "theme", `"dark"`)},
			expectedValue: []byte(`"light"`),
		},
		{
			name:          "named scope row",
			dbParam:       db,
			key:           "site.name",
			scope:         system,
			seedData:      []models.Setting{row(system, "site.name", `"Mine"`)},
			expectedValue: []byte(`"Mine"`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Clean database for each test
			db.Exec("DELETE FROM settings")

			if tc.seedData != nil {
				seedSettings(t, db, tc.seedData)
			}

			setting, err := Find(tc.dbParam, tc.key, tc.scope)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)
			} else {
				require.NoError(t, err)
				require.NotNil(t, setting)
				assert.Equal(t, tc.key, setting.Key)
				assert.Equal(t, tc.expectedValue, setting.Value)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)

	first, err := Create(db, "site.name", "string", []byte(`"One"`), system)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := Create(db, "site.name", "string", []byte(`"Two"`), system)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert keeps the row")
	assert.Equal(t, []byte(`"Two"`), second.Value)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "upsert keeps the creation time")

	_, err = Create(db, "site.name", "string", []byte(`"Alice"`), alice)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = Create(nil, "a", "string", nil, system)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Create(db, "", "string", nil, system)
	require.ErrorIs(t, err, ErrSettingKeyEmpty)
}

func TestCreateConcurrentWriters(t *testing.T) {
	db := setupTestDB(t)

	const writers = 16

	var wg sync.WaitGroup

	errs := make(chan error, writers)

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := Create(db, "site.limit", "integer", []byte(strconv.Itoa(i)), system)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var rows []models.Setting
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	n, err := strconv.Atoi(string(rows[0].Value))
	require.NoError(t, err)
	assert.True(t, n >= 0 && n < writers, "one of the written values wins")
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{row(system, "a", `"x"`)})

	deleted, err := Delete(db, "a", alice)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = Delete(db, "a", system)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = Delete(db, "a", system)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete is a no-op")

	_, err = Delete(nil, "a", system)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestListPrefixed(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{
		row(system, "mail.port", "1"),
		row(system, "mail", "2"),
		row(system, "mailer.host", "3"),
		row(system, "mail.smtp.tls", "4"),
		row(system, "mail_x", "5"),
		row(alice, "mail.port", "6"),
	})

	testCases := []struct {
		name     string
		scope    scope.Scope
		prefix   string
		expected []string
	}{
		{
			name:     "all in insertion order",
			scope:    system,
			expected: []string{"mail.port", "mail", "mailer.host", "mail.smtp.tls", "mail_x"},
		},
		{name: "dot path prefix", scope: system, prefix: "mail", expected: []string{"mail.port", "mail", "mail.smtp.tls"}},
		{name: "nested prefix", scope: system, prefix: "mail.smtp", expected: []string{"mail.smtp.tls"}},
		{name: "wildcards are literal", scope: system, prefix: "mail_", expected: []string{}},
		{name: "owner scope", scope: alice, prefix: "mail", expected: []string{"mail.port"}},
		{name: "empty owner scope", scope: bob, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings, err := ListPrefixed(db, tc.scope, tc.prefix)
			require.NoError(t, err)

			keys := make([]string, 0, len(settings))
			for _, s := range settings {
				keys = append(keys, s.Key)
			}

			assert.Equal(t, tc.expected, keys)
		})
	}

	all, err := ListAll(db, system)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = ListAll(nil, system)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestCountAndClear(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{
		row(system, "mail.port", "1"),
		row(system, "site.name", "2"),
		row(alice, "theme", "3"),
		row(bob, "theme", "4"),
		row(bob, "layout.sidebar", "5"),
	})

	byScope, err := CountByScope(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"system": 2, "user": 3}, byScope)

	count, err := Count(db, "user", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = Count(db, "user", "layout")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	removed, err := Clear(db, "system", "mail")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = Clear(db, "user", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	removed, err = ClearAll(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = Count(db, "", "")
	require.ErrorIs(t, err, ErrScopeEmpty)

	_, err = ClearAll(nil)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	setting, err := store.Find(ctx, "a", system)
	require.NoError(t, err)
	assert.Nil(t, setting)

	created, err := store.Create(ctx, "a", value.TypeInteger, []byte("5"), system)
	require.NoError(t, err)
	assert.Equal(t, "integer", created.Type)

	setting, err = store.Find(ctx, "a", system)
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.Equal(t, []byte("5"), setting.Value)

	list, err := store.ListPrefixed(ctx, system, "a")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = store.ListAll(ctx, system)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := store.Delete(ctx, "a", system)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = NewStore(nil).Find(ctx, "a", system)
	require.ErrorIs(t, err, ErrDBNil)
}
