package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations("../../migrations"))
	return db
}

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f(v float64) *float64 { return &v }

func createChild(t *testing.T, db database.DBTX, name string) *models.Child {
	t.Helper()
	child, err := NewChildRepository(db).CreateChild(name, date("2024-01-15"), models.GenderFemale)
	require.NoError(t, err)
	return child
}

func TestChildRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewChildRepository(db)

	emma := createChild(t, db, "Emma")
	noah, err := repo.CreateChild("Noah", date("2023-06-01"), models.GenderMale)
	require.NoError(t, err)

	got, err := repo.GetChild(emma.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Emma", got.Name)
	assert.Equal(t, date("2024-01-15"), got.DateOfBirth)
	assert.Equal(t, models.GenderFemale, got.Gender)

	missing, err := repo.GetChild(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	children, err := repo.ListChildren()
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, emma.ID, children[0].ID)
	assert.Equal(t, noah.ID, children[1].ID)

	_, err = repo.CreateChild("", date("2024-01-01"), models.GenderOther)
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, repo.DeleteChild(noah.ID))
	children, err = repo.ListChildren()
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestGrowthRepositoryByRange(t *testing.T) {
	db := openTestDB(t)
	child := createChild(t, db, "Emma")
	repo := NewGrowthRepository(db)

	records := []models.GrowthMeasurement{
		{ChildID: child.ID, Date: date("2024-07-10"), Height: f(66.5), Notes: "clinic"},
		{ChildID: child.ID, Date: date("2024-07-04"), Weight: f(7.2)},
		{ChildID: child.ID, Date: date("2024-07-12"), Height: f(67), Weight: f(7.4), HeadCircumference: f(42.8)},
		{ChildID: child.ID, Date: date("2024-06-30"), Height: f(65)},
	}
	for i := range records {
		require.NoError(t, repo.Create(&records[i]))
		assert.NotZero(t, records[i].ID)
	}

	got, err := repo.ByRange(child.ID, date("2024-07-04"), date("2024-07-10"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, date("2024-07-04"), got[0].Date)
	assert.Nil(t, got[0].Height)
	require.NotNil(t, got[0].Weight)
	assert.InDelta(t, 7.2, *got[0].Weight, 1e-9)

	assert.Equal(t, date("2024-07-10"), got[1].Date)
	assert.Equal(t, "clinic", got[1].Notes)
	assert.Nil(t, got[1].HeadCircumference)

	err = repo.Create(&models.GrowthMeasurement{ChildID: child.ID, Date: date("2024-07-05")})
	assert.Error(t, err)
}

func TestMilestoneRepositoryByRange(t *testing.T) {
	db := openTestDB(t)
	child := createChild(t, db, "Emma")
	repo := NewMilestoneRepository(db)

	for _, m := range []models.Milestone{
		{ChildID: child.ID, Category: models.CategorySocial, Description: "First smile", AchievementDate: date("2024-07-04")},
		{ChildID: child.ID, Category: models.CategoryPhysical, Description: "Rolled over", AchievementDate: date("2024-07-11"), Notes: "on the rug"},
		{ChildID: child.ID, Category: models.CategoryLanguage, Description: "Babbled", AchievementDate: date("2024-07-12")},
	} {
		require.NoError(t, repo.Create(&m))
	}

	got, err := repo.ByRange(child.ID, date("2024-07-05"), date("2024-07-11"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rolled over", got[0].Description)
	assert.Equal(t, models.CategoryPhysical, got[0].Category)
	assert.Equal(t, "on the rug", got[0].Notes)
}

func TestBehaviorRepositoryByRange(t *testing.T) {
	db := openTestDB(t)
	child := createChild(t, db, "Emma")
	repo := NewBehaviorRepository(db)

	happy := models.MoodHappy
	good := models.EatingGood
	sleep := 4
	require.NoError(t, repo.Create(&models.BehaviorEntry{
		ChildID: child.ID, Date: date("2024-07-06"), Mood: &happy, SleepQuality: &sleep, EatingHabits: &good, Notes: "park day",
	}))
	require.NoError(t, repo.Create(&models.BehaviorEntry{ChildID: child.ID, Date: date("2024-07-07")}))

	got, err := repo.ByRange(child.ID, date("2024-07-01"), date("2024-07-07"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].Mood)
	assert.Equal(t, models.MoodHappy, *got[0].Mood)
	require.NotNil(t, got[0].SleepQuality)
	assert.Equal(t, 4, *got[0].SleepQuality)
	require.NotNil(t, got[0].EatingHabits)
	assert.Equal(t, models.EatingGood, *got[0].EatingHabits)

	assert.Nil(t, got[1].Mood)
	assert.Nil(t, got[1].SleepQuality)
	assert.Nil(t, got[1].EatingHabits)

	bad := 9
	assert.Error(t, repo.Create(&models.BehaviorEntry{ChildID: child.ID, Date: date("2024-07-08"), SleepQuality: &bad}))
}

func TestSummaryRepository(t *testing.T) {
	db := openTestDB(t)
	child := createChild(t, db, "Emma")
	repo := NewSummaryRepository(db)

	found, err := repo.Find(child.ID, date("2024-07-01"))
	require.NoError(t, err)
	assert.Nil(t, found)

	generated := time.Date(2024, 7, 8, 9, 30, 0, 0, time.UTC)
	first := &models.PeriodicSummary{
		ChildID:       child.ID,
		PeriodStart:   date("2024-07-01"),
		PeriodEnd:     date("2024-07-07"),
		NarrativeText: "A lovely week.",
		GeneratedAt:   generated,
	}
	require.NoError(t, repo.Insert(first))
	assert.NotEmpty(t, first.ID)

	found, err = repo.Find(child.ID, date("2024-07-01"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, date("2024-07-07"), found.PeriodEnd)
	assert.Equal(t, "A lovely week.", found.NarrativeText)
	assert.True(t, generated.Equal(found.GeneratedAt))

	duplicate := &models.PeriodicSummary{
		ChildID:       child.ID,
		PeriodStart:   date("2024-07-01"),
		PeriodEnd:     date("2024-07-07"),
		NarrativeText: "Another take.",
	}
	assert.ErrorIs(t, repo.Insert(duplicate), database.ErrDuplicate)

	second := &models.PeriodicSummary{
		ChildID:       child.ID,
		PeriodStart:   date("2024-07-08"),
		PeriodEnd:     date("2024-07-14"),
		NarrativeText: "Busy week.",
	}
	require.NoError(t, repo.Insert(second))
	assert.False(t, second.GeneratedAt.IsZero())

	list, err := repo.ListForChild(child.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestRepositoriesInTransaction(t *testing.T) {
	db := openTestDB(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	child := createChild(t, tx, "Rollback")
	require.NoError(t, tx.Rollback())

	got, err := NewChildRepository(db).GetChild(child.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
