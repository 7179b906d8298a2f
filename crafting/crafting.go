// Package crafting registers the entity types of the crafting tools site
// and adds the few lookups the site needs on top of the generic mapper.
package crafting

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/record"
)

// Entity type names.
const (
	TypeCategory    = "Category"
	TypeJob         = "Job"
	TypeRegion      = "Region"
	TypeDatacenter  = "Datacenter"
	TypeWorld       = "World"
	TypeZone        = "Zone"
	TypeWeather     = "Weather"
	TypeZoneWeather = "ZoneWeather"
	TypeMacro       = "Macro"
	TypeUser        = "User"
	TypeLog         = "Log"
)

// Skill categories. The values are the IDs of the Category rows.
const (
	CategoryProgress          int64 = 1
	CategoryQuality           int64 = 2
	CategoryBuff              int64 = 3
	CategoryRestoreCP         int64 = 4
	CategoryRestoreDurability int64 = 5
	CategorySpecialist        int64 = 6
	CategoryOther             int64 = 7
)

// Default macro wait times, in seconds.
const (
	DefaultWaitSkill = 3
	DefaultWaitBuff  = 2
)

var categoryLabels = map[int64]string{
	CategoryProgress:          "Progress",
	CategoryQuality:           "Quality",
	CategoryBuff:              "Buff",
	CategoryRestoreCP:         "Restore CP",
	CategoryRestoreDurability: "Restore durability",
	CategorySpecialist:        "Specialist action",
	CategoryOther:             "Other",
}

// EntityTypes returns the cache policy of every site type. Reference data is
// public and never expires; macros are public for short; users and logs are
// private to the session.
func EntityTypes(short, long time.Duration) []record.EntityType {
	types := make([]record.EntityType, 0, 11)
	for _, name := range []string{
		TypeCategory, TypeJob, TypeRegion, TypeDatacenter,
		TypeWorld, TypeZone, TypeWeather, TypeZoneWeather,
	} {
		types = append(types, record.EntityType{Name: name, Public: true, CacheTTL: cache.TTLPersistent})
	}
	return append(types,
		record.EntityType{Name: TypeMacro, Public: true, CacheTTL: short},
		record.EntityType{Name: TypeUser, CacheTTL: long},
		record.EntityType{Name: TypeLog, CacheTTL: long},
	)
}

// Register adds the site types to m.
func Register(m *record.Mapper, short, long time.Duration) error {
	return m.Register(EntityTypes(short, long)...)
}

// CategoryLabel returns the display label of a category: the fixed label of
// the seven known categories, the stored name otherwise.
func CategoryLabel(ctx context.Context, category *record.Entity) (string, error) {
	if label, ok := categoryLabels[category.ID()]; ok {
		return label, nil
	}
	name, err := category.Call(ctx, "GetName")
	if err != nil {
		return "", err
	}
	return fmt.Sprint(name), nil
}

// WorldsByDatacenter lists the worlds of a datacenter, after checking that
// the datacenter exists.
func WorldsByDatacenter(ctx context.Context, m *record.Mapper, datacenterID int64) ([]*record.Entity, error) {
	return childrenOf(ctx, m, TypeDatacenter, TypeWorld, datacenterID)
}

// ZonesByRegion lists the zones of a region, after checking that the region
// exists.
func ZonesByRegion(ctx context.Context, m *record.Mapper, regionID int64) ([]*record.Entity, error) {
	return childrenOf(ctx, m, TypeRegion, TypeZone, regionID)
}

func childrenOf(ctx context.Context, m *record.Mapper, parentType, childType string, parentID int64) ([]*record.Entity, error) {
	if _, err := m.FindUnique(ctx, parentType, "ID", parentID); err != nil {
		return nil, err
	}
	return m.GetAllBy(ctx, childType, parentType, parentID)
}

// SetReference points the field named refType of e at the refType row with
// the given ID, failing with errs.ErrNotFound when no such row exists.
func SetReference(ctx context.Context, m *record.Mapper, e *record.Entity, refType string, id int64) error {
	if _, err := m.FindUnique(ctx, refType, "ID", id); err != nil {
		return err
	}
	_, err := e.Call(ctx, "Set"+refType, id)
	return err
}

// WeatherForChance returns the weather of a zone for a forecast roll in
// [0, 100). ZoneWeather rows hold inclusive Min and Max bounds per weather.
func WeatherForChance(ctx context.Context, m *record.Mapper, zoneID, chance int64) (*record.Entity, error) {
	rows, err := childrenOf(ctx, m, TypeZone, TypeZoneWeather, zoneID)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		lo, _ := row.Get("Min")
		hi, _ := row.Get("Max")
		if chance >= toInt(lo) && chance <= toInt(hi) {
			weather, _ := row.Get(TypeWeather)
			return m.FindUnique(ctx, TypeWeather, "ID", weather)
		}
	}
	return nil, errs.NotFound(TypeZoneWeather, "Zone", fmt.Sprintf("%d chance %d", zoneID, chance))
}

func toInt(v any) int64 {
	i, _ := v.(int64)
	return i
}
