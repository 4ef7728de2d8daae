package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "tenant_id", "deletion_mark", "version", "code", "name"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				TenantID:     id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "CEM",
		Name: "Cement 25kg",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, cat.TenantID, m["tenant_id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "CEM", m["code"])
	assert.Equal(t, "Cement 25kg", m["name"])
}

func TestStructToMapPointerFields(t *testing.T) {
	type row struct {
		ID   id.ID   `db:"id"`
		Note *string `db:"note"`
	}

	note := "hello"
	m := StructToMap(row{ID: id.New(), Note: &note})
	assert.Equal(t, &note, m["note"])

	m = StructToMap(row{ID: id.New()})
	assert.Nil(t, m["note"])
}
