// Package watershedgroup provides CRUD operations for watershed groups.
package watershedgroup

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when a watershed group is not found.
	ErrGroupNotFound = errors.New("watershed group not found")
	// ErrDuplicate is returned when another group has the same name.
	ErrDuplicate = errors.New("watershed group name already exists")
	// ErrMissingData is returned when the name or the member list is empty.
	ErrMissingData = errors.New("watershed group name and members are required")
)

// List returns all groups ordered by name, members included.
func List(db *gorm.DB) ([]models.WatershedGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.WatershedGroup

	err := db.Preload("Watersheds", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("watershed_name, subbasin_name")
	}).Order("name").Find(&groups).Error
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return groups, nil
}

// Get retrieves a group by its ID, members included.
func Get(db *gorm.DB, id uint64) (*models.WatershedGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var group models.WatershedGroup
	if err := db.Preload("Watersheds").First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	return &group, nil
}

func checkUnique(tx *gorm.DB, name string, exceptID uint64) error {
	var count int64
	if err := tx.Model(&models.WatershedGroup{}).
		Where("name = ?", name).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if count > 0 {
		return ErrDuplicate
	}

	return nil
}

func findWatersheds(tx *gorm.DB, ids []uint64) ([]models.Watershed, error) {
	var watersheds []models.Watershed
	if err := tx.Where("id IN ?", ids).Find(&watersheds).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return watersheds, nil
}

// Create inserts a group with the existing watersheds among watershedIDs as members.
func Create(db *gorm.DB, name string, watershedIDs []uint64) (*models.WatershedGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	if name == "" || len(watershedIDs) == 0 {
		return nil, ErrMissingData
	}

	group := models.WatershedGroup{Name: name}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, name, 0); err != nil {
			return err
		}

		if err := tx.Omit("Watersheds").Create(&group).Error; err != nil {
			return translate(err)
		}

		found, err := findWatersheds(tx, watershedIDs)
		if err != nil {
			return err
		}

		if len(found) == 0 {
			return nil
		}

		return members(tx, group.ID).Append(pointers(found)...) //nolint:wrapcheck
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return Get(db, group.ID)
}

// Update renames a group and replaces its members by the existing watersheds among watershedIDs.
// Members not listed anymore are removed, new ones are added, unknown ids are ignored.
func Update(db *gorm.DB, id uint64, name string, watershedIDs []uint64) (*models.WatershedGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	if name == "" || len(watershedIDs) == 0 {
		return nil, ErrMissingData
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, name, id); err != nil {
			return err
		}

		group, err := Get(tx, id)
		if err != nil {
			return err
		}

		if err = tx.Model(group).Update("name", name).Error; err != nil {
			return translate(err)
		}

		wanted, err := findWatersheds(tx, watershedIDs)
		if err != nil {
			return err
		}

		stale, added := diffMembers(group.Watersheds, wanted)

		if len(stale) > 0 {
			if err = members(tx, group.ID).Delete(pointers(stale)...); err != nil {
				return err //nolint:wrapcheck
			}
		}

		if len(added) > 0 {
			if err = members(tx, group.ID).Append(pointers(added)...); err != nil {
				return err //nolint:wrapcheck
			}
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return Get(db, id)
}

// members returns a fresh membership association of the group id.
// An association must not be reused once it ran a Delete.
func members(tx *gorm.DB, groupID uint64) *gorm.Association {
	return tx.Model(&models.WatershedGroup{ID: groupID}).Omit("Watersheds.*").Association("Watersheds")
}

func pointers(watersheds []models.Watershed) []any {
	values := make([]any, len(watersheds))
	for i := range watersheds {
		values[i] = &watersheds[i]
	}

	return values
}

// diffMembers returns the current members missing from wanted and the wanted ones not yet members.
func diffMembers(current, wanted []models.Watershed) (stale, added []models.Watershed) {
	wantedIDs := make(map[uint64]struct{}, len(wanted))
	for _, w := range wanted {
		wantedIDs[w.ID] = struct{}{}
	}

	currentIDs := make(map[uint64]struct{}, len(current))

	for _, w := range current {
		currentIDs[w.ID] = struct{}{}

		if _, ok := wantedIDs[w.ID]; !ok {
			stale = append(stale, w)
		}
	}

	for _, w := range wanted {
		if _, ok := currentIDs[w.ID]; !ok {
			added = append(added, w)
		}
	}

	return stale, added
}

// Delete removes a group and its memberships. The watersheds stay.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error { //nolint:wrapcheck
		group := models.WatershedGroup{ID: id}

		if err := tx.Model(&group).Association("Watersheds").Clear(); err != nil {
			return err //nolint:wrapcheck
		}

		result := tx.Delete(&group)
		if result.Error != nil {
			return result.Error //nolint:wrapcheck
		}

		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}

		return nil
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	return err
}
